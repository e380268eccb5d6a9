package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/models"
)

const (
	defaultPayloadLimit  = 100
	defaultStarlinkLimit = 50
)

// SpaceXClient fetches records from the public SpaceX v4 API: launches,
// rockets, capsules, crew, payloads and Starlink satellites.
type SpaceXClient struct {
	baseURL       string
	client        *http.Client
	logger        *zap.Logger
	payloadLimit  int
	starlinkLimit int
}

// SpaceXOption customizes a SpaceXClient.
type SpaceXOption func(*SpaceXClient)

// WithPayloadLimit caps how many payload records a fetch keeps.
func WithPayloadLimit(n int) SpaceXOption {
	return func(c *SpaceXClient) {
		if n > 0 {
			c.payloadLimit = n
		}
	}
}

// WithStarlinkLimit caps how many Starlink records a fetch keeps.
func WithStarlinkLimit(n int) SpaceXOption {
	return func(c *SpaceXClient) {
		if n > 0 {
			c.starlinkLimit = n
		}
	}
}

// WithSpaceXHTTPClient overrides the HTTP client.
func WithSpaceXHTTPClient(client *http.Client) SpaceXOption {
	return func(c *SpaceXClient) { c.client = client }
}

// NewSpaceXClient creates a client for the configured SpaceX endpoint.
func NewSpaceXClient(cfg config.SourcesConfig, logger *zap.Logger, opts ...SpaceXOption) *SpaceXClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &SpaceXClient{
		baseURL:       cfg.SpaceXBaseURL,
		client:        &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:        logger,
		payloadLimit:  defaultPayloadLimit,
		starlinkLimit: defaultStarlinkLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Source.
func (c *SpaceXClient) Name() string { return "spacex" }

// Fetch implements Source with the same per-type degradation as the NASA
// client.
func (c *SpaceXClient) Fetch(ctx context.Context, types []string) ([]models.RawRecord, error) {
	fetches := []struct {
		recordType string
		fn         func(context.Context) ([]models.RawRecord, error)
	}{
		{models.TypeLaunch, c.fetchLaunches},
		{models.TypeRocket, c.fetchRockets},
		{models.TypeCapsule, c.fetchCapsules},
		{models.TypeCrew, c.fetchCrew},
		{models.TypePayload, c.fetchPayloads},
		{models.TypeStarlink, c.fetchStarlink},
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

func (c *SpaceXClient) fetchLaunches(ctx context.Context) ([]models.RawRecord, error) {
	var launches []struct {
		Name         string   `json:"name"`
		DateUTC      string   `json:"date_utc"`
		Success      *bool    `json:"success"`
		Details      string   `json:"details"`
		Rocket       string   `json:"rocket"`
		Payloads     []string `json:"payloads"`
		FlightNumber int      `json:"flight_number"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/launches", &launches); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(launches))
	for _, launch := range launches {
		payload := map[string]any{
			"name":          launch.Name,
			"date_utc":      launch.DateUTC,
			"details":       launch.Details,
			"flight_number": launch.FlightNumber,
			"rocket":        launch.Rocket,
			"payloads":      launch.Payloads,
		}
		// Success stays absent for launches that have not flown, so the
		// normalizer renders them as pending.
		if launch.Success != nil {
			payload["success"] = *launch.Success
		}
		records = append(records, models.RawRecord{
			Type:    models.TypeLaunch,
			Source:  "SpaceX API",
			Payload: payload,
		})
	}
	return records, nil
}

func (c *SpaceXClient) fetchRockets(ctx context.Context) ([]models.RawRecord, error) {
	var rockets []struct {
		Name           string         `json:"name"`
		Description    string         `json:"description"`
		Height         map[string]any `json:"height"`
		Diameter       map[string]any `json:"diameter"`
		Mass           map[string]any `json:"mass"`
		CostPerLaunch  float64        `json:"cost_per_launch"`
		SuccessRatePct float64        `json:"success_rate_pct"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/rockets", &rockets); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(rockets))
	for _, rocket := range rockets {
		records = append(records, models.RawRecord{
			Type:   models.TypeRocket,
			Source: "SpaceX API",
			Payload: map[string]any{
				"name":             rocket.Name,
				"description":      rocket.Description,
				"height":           rocket.Height,
				"diameter":         rocket.Diameter,
				"mass":             rocket.Mass,
				"cost_per_launch":  rocket.CostPerLaunch,
				"success_rate_pct": rocket.SuccessRatePct,
			},
		})
	}
	return records, nil
}

func (c *SpaceXClient) fetchCapsules(ctx context.Context) ([]models.RawRecord, error) {
	var capsules []struct {
		Serial        string   `json:"serial"`
		Status        string   `json:"status"`
		Type          string   `json:"type"`
		ReuseCount    int      `json:"reuse_count"`
		WaterLandings int      `json:"water_landings"`
		LandLandings  int      `json:"land_landings"`
		LastUpdate    string   `json:"last_update"`
		Launches      []string `json:"launches"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/capsules", &capsules); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(capsules))
	for _, capsule := range capsules {
		records = append(records, models.RawRecord{
			Type:   models.TypeCapsule,
			Source: "SpaceX API",
			Payload: map[string]any{
				"serial":         capsule.Serial,
				"status":         capsule.Status,
				"type":           capsule.Type,
				"reuse_count":    capsule.ReuseCount,
				"water_landings": capsule.WaterLandings,
				"land_landings":  capsule.LandLandings,
				"last_update":    capsule.LastUpdate,
				"launches":       capsule.Launches,
			},
		})
	}
	return records, nil
}

func (c *SpaceXClient) fetchCrew(ctx context.Context) ([]models.RawRecord, error) {
	var crew []struct {
		Name      string   `json:"name"`
		Agency    string   `json:"agency"`
		Image     string   `json:"image"`
		Wikipedia string   `json:"wikipedia"`
		Launches  []string `json:"launches"`
		Status    string   `json:"status"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/crew", &crew); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(crew))
	for _, member := range crew {
		records = append(records, models.RawRecord{
			Type:   models.TypeCrew,
			Source: "SpaceX API",
			Payload: map[string]any{
				"name":      member.Name,
				"agency":    member.Agency,
				"image":     member.Image,
				"wikipedia": member.Wikipedia,
				"launches":  member.Launches,
				"status":    member.Status,
			},
		})
	}
	return records, nil
}

func (c *SpaceXClient) fetchPayloads(ctx context.Context) ([]models.RawRecord, error) {
	var payloads []struct {
		Name          string   `json:"name"`
		Type          string   `json:"type"`
		MassKg        *float64 `json:"mass_kg"`
		Orbit         string   `json:"orbit"`
		Customers     []string `json:"customers"`
		Manufacturers []string `json:"manufacturers"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/payloads", &payloads); err != nil {
		return nil, err
	}

	if len(payloads) > c.payloadLimit {
		payloads = payloads[:c.payloadLimit]
	}
	records := make([]models.RawRecord, 0, len(payloads))
	for _, item := range payloads {
		payload := map[string]any{
			"name":          item.Name,
			"type":          item.Type,
			"orbit":         item.Orbit,
			"customers":     item.Customers,
			"manufacturers": item.Manufacturers,
		}
		setOptional(payload, "mass_kg", item.MassKg)
		records = append(records, models.RawRecord{
			Type:    models.TypePayload,
			Source:  "SpaceX API",
			Payload: payload,
		})
	}
	return records, nil
}

func (c *SpaceXClient) fetchStarlink(ctx context.Context) ([]models.RawRecord, error) {
	var satellites []struct {
		SpaceTrack struct {
			ObjectName string `json:"OBJECT_NAME"`
			ObjectID   string `json:"OBJECT_ID"`
			LaunchDate string `json:"LAUNCH_DATE"`
		} `json:"spaceTrack"`
		Longitude   *float64 `json:"longitude"`
		Latitude    *float64 `json:"latitude"`
		HeightKm    *float64 `json:"height_km"`
		VelocityKms *float64 `json:"velocity_kms"`
	}
	if err := getJSON(ctx, c.client, c.baseURL+"/starlink", &satellites); err != nil {
		return nil, err
	}

	if len(satellites) > c.starlinkLimit {
		satellites = satellites[:c.starlinkLimit]
	}
	records := make([]models.RawRecord, 0, len(satellites))
	for _, sat := range satellites {
		payload := map[string]any{
			"object_name":   sat.SpaceTrack.ObjectName,
			"spacetrack_id": sat.SpaceTrack.ObjectID,
			"launch_date":   sat.SpaceTrack.LaunchDate,
		}
		setOptional(payload, "height_km", sat.HeightKm)
		setOptional(payload, "velocity_kms", sat.VelocityKms)
		setOptional(payload, "longitude", sat.Longitude)
		setOptional(payload, "latitude", sat.Latitude)
		records = append(records, models.RawRecord{
			Type:    models.TypeStarlink,
			Source:  "SpaceX API",
			Payload: payload,
		})
	}
	return records, nil
}
