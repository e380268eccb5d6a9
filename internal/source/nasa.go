package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/models"
)

const (
	defaultExoplanetURL = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"
	exoplanetQuery      = "select top 50 pl_name,hostname,disc_year,pl_orbper,pl_rade,pl_masse,st_dist from ps where default_flag=1"

	apodBatchSize   = 100
	marsPhotoSol    = 1000
	marsPhotoLimit  = 20
	techportDetails = 10
)

// NASAClient fetches records from the NASA open APIs: astronomy pictures,
// near-Earth objects, Mars rover photos, the exoplanet archive and the
// TechPort technology portfolio.
type NASAClient struct {
	baseURL string
	exoURL  string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NASAOption customizes a NASAClient.
type NASAOption func(*NASAClient)

// WithExoplanetURL overrides the exoplanet archive TAP endpoint, which lives
// on a different host than the rest of the NASA APIs.
func WithExoplanetURL(u string) NASAOption {
	return func(c *NASAClient) { c.exoURL = u }
}

// WithNASAHTTPClient overrides the HTTP client.
func WithNASAHTTPClient(client *http.Client) NASAOption {
	return func(c *NASAClient) { c.client = client }
}

// NewNASAClient creates a client for the configured NASA endpoints.
func NewNASAClient(cfg config.SourcesConfig, logger *zap.Logger, opts ...NASAOption) *NASAClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &NASAClient{
		baseURL: cfg.NASABaseURL,
		exoURL:  defaultExoplanetURL,
		apiKey:  cfg.NASAAPIKey,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *NASAClient) Name() string { return "nasa" }

// Fetch implements Source. Each record type is fetched independently; a
// failing endpoint is logged and skipped. Fetch errors only when every
// requested type failed.
func (c *NASAClient) Fetch(ctx context.Context, types []string) ([]models.RawRecord, error) {
	fetches := []struct {
		recordType string
		fn         func(context.Context) ([]models.RawRecord, error)
	}{
		{models.TypeAPOD, c.fetchAPOD},
		{models.TypeNEO, c.fetchNEO},
		{models.TypeMarsPhoto, c.fetchMarsPhotos},
		{models.TypeExoplanet, c.fetchExoplanets},
		{models.TypeTechnology, c.fetchTechnology},
	}

	var records []models.RawRecord
	var errs []error
	for _, f := range fetches {
		if !wantType(types, f.recordType) {
			continue
		}
		recs, err := f.fn(ctx)
		if err != nil {
			c.logger.Warn("failed to fetch records",
				zap.String("source", c.Name()),
				zap.String("record_type", f.recordType),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f.recordType, err))
			continue
		}
		records = append(records, recs...)
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

func (c *NASAClient) fetchAPOD(ctx context.Context) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/planetary/apod?api_key=%s&count=%d",
		c.baseURL, url.QueryEscape(c.apiKey), apodBatchSize)

	var items []struct {
		Title       string `json:"title"`
		Explanation string `json:"explanation"`
		Date        string `json:"date"`
		URL         string `json:"url"`
		MediaType   string `json:"media_type"`
	}
	if err := getJSON(ctx, c.client, u, &items); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(items))
	for _, item := range items {
		records = append(records, models.RawRecord{
			Type:   models.TypeAPOD,
			Source: "NASA APOD",
			Payload: map[string]any{
				"title":       item.Title,
				"explanation": item.Explanation,
				"date":        item.Date,
				"url":         item.URL,
				"media_type":  item.MediaType,
			},
		})
	}
	return records, nil
}

func (c *NASAClient) fetchNEO(ctx context.Context) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/neo/rest/v1/neo/browse?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var payload struct {
		NearEarthObjects []struct {
			Name                 string         `json:"name"`
			NasaJplURL           string         `json:"nasa_jpl_url"`
			AbsoluteMagnitudeH   float64        `json:"absolute_magnitude_h"`
			EstimatedDiameter    map[string]any `json:"estimated_diameter"`
			PotentiallyHazardous bool           `json:"is_potentially_hazardous_asteroid"`
			OrbitalData          map[string]any `json:"orbital_data"`
		} `json:"near_earth_objects"`
	}
	if err := getJSON(ctx, c.client, u, &payload); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(payload.NearEarthObjects))
	for _, obj := range payload.NearEarthObjects {
		records = append(records, models.RawRecord{
			Type:   models.TypeNEO,
			Source: "NASA NEO",
			Payload: map[string]any{
				"name":                  obj.Name,
				"nasa_jpl_url":          obj.NasaJplURL,
				"absolute_magnitude":    obj.AbsoluteMagnitudeH,
				"estimated_diameter":    obj.EstimatedDiameter,
				"potentially_hazardous": obj.PotentiallyHazardous,
				"orbital_data":          obj.OrbitalData,
			},
		})
	}
	return records, nil
}

func (c *NASAClient) fetchMarsPhotos(ctx context.Context) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/mars-photos/api/v1/rovers/curiosity/photos?api_key=%s&sol=%d&page=1",
		c.baseURL, url.QueryEscape(c.apiKey), marsPhotoSol)

	var payload struct {
		Photos []struct {
			ID        int    `json:"id"`
			Sol       int    `json:"sol"`
			ImgSrc    string `json:"img_src"`
			EarthDate string `json:"earth_date"`
			Camera    struct {
				FullName string `json:"full_name"`
			} `json:"camera"`
			Rover struct {
				Name        string `json:"name"`
				Status      string `json:"status"`
				LandingDate string `json:"landing_date"`
			} `json:"rover"`
		} `json:"photos"`
	}
	if err := getJSON(ctx, c.client, u, &payload); err != nil {
		return nil, err
	}

	photos := payload.Photos
	if len(photos) > marsPhotoLimit {
		photos = photos[:marsPhotoLimit]
	}
	records := make([]models.RawRecord, 0, len(photos))
	for _, photo := range photos {
		records = append(records, models.RawRecord{
			Type:   models.TypeMarsPhoto,
			Source: "NASA Mars Photos",
			Payload: map[string]any{
				"id":           photo.ID,
				"sol":          photo.Sol,
				"camera":       photo.Camera.FullName,
				"img_src":      photo.ImgSrc,
				"earth_date":   photo.EarthDate,
				"rover":        photo.Rover.Name,
				"rover_status": photo.Rover.Status,
				"landing_date": photo.Rover.LandingDate,
			},
		})
	}
	return records, nil
}

func (c *NASAClient) fetchExoplanets(ctx context.Context) ([]models.RawRecord, error) {
	params := url.Values{}
	params.Set("query", exoplanetQuery)
	params.Set("format", "json")
	u := c.exoURL + "?" + params.Encode()

	var rows []struct {
		PlName   string   `json:"pl_name"`
		Hostname string   `json:"hostname"`
		DiscYear *float64 `json:"disc_year"`
		PlOrbper *float64 `json:"pl_orbper"`
		PlRade   *float64 `json:"pl_rade"`
		PlMasse  *float64 `json:"pl_masse"`
		StDist   *float64 `json:"st_dist"`
	}
	if err := getJSON(ctx, c.client, u, &rows); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		payload := map[string]any{
			"planet_name": row.PlName,
			"host_star":   row.Hostname,
		}
		setOptional(payload, "discovery_year", row.DiscYear)
		setOptional(payload, "orbital_period", row.PlOrbper)
		setOptional(payload, "planet_radius", row.PlRade)
		setOptional(payload, "planet_mass", row.PlMasse)
		setOptional(payload, "stellar_distance", row.StDist)
		records = append(records, models.RawRecord{
			Type:    models.TypeExoplanet,
			Source:  "NASA Exoplanet Archive",
			Payload: payload,
		})
	}
	return records, nil
}

// fetchTechnology lists TechPort projects, then fetches details for the
// first few. A failing detail call skips that project only.
func (c *NASAClient) fetchTechnology(ctx context.Context) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/techport/api/projects?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var listing struct {
		Projects []struct {
			ProjectID int `json:"projectId"`
		} `json:"projects"`
	}
	if err := getJSON(ctx, c.client, u, &listing); err != nil {
		return nil, err
	}

	projects := listing.Projects
	if len(projects) > techportDetails {
		projects = projects[:techportDetails]
	}
	records := make([]models.RawRecord, 0, len(projects))
	for _, project := range projects {
		if project.ProjectID == 0 {
			continue
		}
		detailURL := fmt.Sprintf("%s/techport/api/projects/%d?api_key=%s",
			c.baseURL, project.ProjectID, url.QueryEscape(c.apiKey))

		var detail struct {
			Project struct {
				ProjectID         int    `json:"projectId"`
				Title             string `json:"title"`
				Description       string `json:"description"`
				Benefits          string `json:"benefits"`
				StatusDescription string `json:"statusDescription"`
				StartDateString   string `json:"startDateString"`
				EndDateString     string `json:"endDateString"`
			} `json:"project"`
		}
		if err := getJSON(ctx, c.client, detailURL, &detail); err != nil {
			c.logger.Debug("skipping techport project",
				zap.Int("project_id", project.ProjectID),
				zap.Error(err))
			continue
		}
		records = append(records, models.RawRecord{
			Type:   models.TypeTechnology,
			Source: "NASA TechPort",
			Payload: map[string]any{
				"project_id":  detail.Project.ProjectID,
				"title":       detail.Project.Title,
				"description": detail.Project.Description,
				"benefits":    detail.Project.Benefits,
				"status":      detail.Project.StatusDescription,
				"start_date":  detail.Project.StartDateString,
				"end_date":    detail.Project.EndDateString,
			},
		})
	}
	return records, nil
}

// setOptional stores a nullable value only when present, so templates can
// distinguish missing from zero.
func setOptional(payload map[string]any, key string, value *float64) {
	if value != nil {
		payload[key] = *value
	}
}
