package source

import (
	"context"

	"github.com/hyperjump/tenmon/internal/models"
)

// StaticSource serves a small built-in record set. It backs training when
// the NASA APIs are unreachable and gives tests a deterministic corpus.
type StaticSource struct{}

// NewStaticSource creates the built-in source.
func NewStaticSource() *StaticSource { return &StaticSource{} }

// Name implements Source.
func (s *StaticSource) Name() string { return "static" }

// Fetch implements Source. It never fails.
func (s *StaticSource) Fetch(ctx context.Context, types []string) ([]models.RawRecord, error) {
	all := staticRecords()
	if len(types) == 0 {
		return all, nil
	}
	var records []models.RawRecord
	for _, rec := range all {
		if wantType(types, rec.Type) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func staticRecords() []models.RawRecord {
	return []models.RawRecord{
		{
			Type:   models.TypeAPOD,
			Source: "NASA APOD",
			Payload: map[string]any{
				"id":          "training_1",
				"title":       "Eagle Nebula Pillars",
				"description": "The Eagle Nebula's Pillars of Creation are towering tendrils of cosmic dust and gas situated 7,000 light-years away in the constellation Serpens. These structures are stellar nurseries where new stars are born.",
			},
		},
		{
			Type:   models.TypeMarsPhoto,
			Source: "NASA Mars Photos",
			Payload: map[string]any{
				"id":         "training_1",
				"sol":        1500,
				"camera":     "MASTCAM",
				"rover":      "Curiosity",
				"earth_date": "2025-01-15",
			},
		},
		{
			Type:   models.TypeNEO,
			Source: "NASA NEO",
			Payload: map[string]any{
				"id":        "training_1",
				"name":      "Bennu",
				"hazardous": false,
				"magnitude": 20.9,
			},
		},
		{
			Type:   models.TypeExoplanet,
			Source: "NASA Exoplanet Archive",
			Payload: map[string]any{
				"id":             "training_1",
				"planet_name":    "TRAPPIST-1e",
				"host_star":      "TRAPPIST-1",
				"discovery_year": 2017,
			},
		},
		{
			Type:   models.TypeTechnology,
			Source: "NASA TechPort",
			Payload: map[string]any{
				"id":          "training_1",
				"title":       "Solar Electric Propulsion",
				"description": "Ion propulsion systems for deep space missions.",
				"benefits":    "High specific impulse for efficient long-duration missions",
			},
		},
	}
}
