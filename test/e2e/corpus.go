// Package e2e exercises the full pipeline: collect, normalize, index,
// train, then answer queries against the result.
package e2e

import (
	"fmt"

	"github.com/hyperjump/tenmon/internal/models"
)

// QueryCase is a catalog query and the record ID that must appear in its
// results.
type QueryCase struct {
	Query       string
	ExpectedID  string
	Description string
}

// Corpus is a deterministic set of raw records spanning every known record
// type, plus query cases keyed to distinctive phrases in those records.
type Corpus struct {
	Raws  []models.RawRecord
	Cases []QueryCase
}

// BuildCorpus returns the test corpus. Each record carries a signature
// phrase that appears in no other record, so queries can assert identity.
func BuildCorpus() *Corpus {
	raws := []models.RawRecord{
		{Type: models.TypeAPOD, Source: "NASA APOD", Payload: map[string]any{
			"id": "eagle", "title": "Eagle Nebula Pillars",
			"description": "Towering dust pillars sculpted by starlight in Serpens.",
		}},
		{Type: models.TypeAPOD, Source: "NASA APOD", Payload: map[string]any{
			"id": "crab", "title": "Crab Nebula Pulsar",
			"description": "A spinning neutron star powers this supernova remnant in Taurus.",
		}},
		{Type: models.TypeNEO, Source: "NASA NEO", Payload: map[string]any{
			"id": "bennu", "name": "Bennu", "hazardous": true, "magnitude": 20.9,
		}},
		{Type: models.TypeNEO, Source: "NASA NEO", Payload: map[string]any{
			"id": "apophis", "name": "Apophis", "hazardous": true, "magnitude": 19.7,
		}},
		{Type: models.TypeMarsPhoto, Source: "NASA Mars Photos", Payload: map[string]any{
			"id": "curiosity-1500", "rover": "Curiosity", "sol": 1500, "camera": "MASTCAM",
		}},
		{Type: models.TypeMarsPhoto, Source: "NASA Mars Photos", Payload: map[string]any{
			"id": "perseverance-800", "rover": "Perseverance", "sol": 800, "camera": "NAVCAM",
		}},
		{Type: models.TypeExoplanet, Source: "NASA Exoplanet Archive", Payload: map[string]any{
			"id": "trappist1e", "planet_name": "TRAPPIST-1e", "host_star": "TRAPPIST-1", "discovery_year": 2017,
		}},
		{Type: models.TypeExoplanet, Source: "NASA Exoplanet Archive", Payload: map[string]any{
			"id": "kepler452b", "planet_name": "Kepler-452b", "host_star": "Kepler-452", "discovery_year": 2015,
		}},
		{Type: models.TypeTechnology, Source: "NASA TechPort", Payload: map[string]any{
			"id": "sep", "title": "Solar Electric Propulsion",
			"description": "Ion thrusters for deep space missions.",
			"benefits":    "High specific impulse for long-duration cruising.",
		}},
		{Type: models.TypeLaunch, Source: "SpaceX API", Payload: map[string]any{
			"id": "crs21", "name": "CRS-21", "flight_number": 110, "success": true,
			"details": "First cargo mission with the upgraded Dragon capsule.",
		}},
		{Type: models.TypeLaunch, Source: "SpaceX API", Payload: map[string]any{
			"id": "demosat", "name": "DemoSat", "flight_number": 2, "success": false,
			"details": "Early demonstration flight that did not reach orbit.",
		}},
		{Type: models.TypeRocket, Source: "SpaceX API", Payload: map[string]any{
			"id": "falconheavy", "name": "Falcon Heavy",
			"description":      "Partially reusable heavy-lift launch vehicle with three cores.",
			"success_rate_pct": 100,
		}},
		{Type: models.TypeCapsule, Source: "SpaceX API", Payload: map[string]any{
			"id": "c206", "serial": "C206", "type": "Dragon 2.0", "status": "active", "reuse_count": 3,
		}},
		{Type: models.TypeCrew, Source: "SpaceX API", Payload: map[string]any{
			"id": "hurley", "name": "Douglas Hurley", "agency": "NASA", "status": "retired",
		}},
		{Type: models.TypePayload, Source: "SpaceX API", Payload: map[string]any{
			"id": "dragonqual", "name": "Dragon Qualification Unit", "payload_type": "Dragon Boilerplate",
			"mass_kg": 6000, "customers": []any{"SpaceX"},
		}},
		{Type: models.TypeStarlink, Source: "SpaceX API", Payload: map[string]any{
			"id": "starlink30", "object_name": "STARLINK-30", "height_km": 550.1, "velocity_kms": 7.6,
		}},
	}

	cases := []QueryCase{
		{"eagle nebula pillars", "apod_eagle", "apod by title phrase"},
		{"crab pulsar", "apod_crab", "apod by description terms"},
		{"bennu", "neo_bennu", "neo by name"},
		{"curiosity mastcam", "mars_photo_curiosity-1500", "mars photo by rover and camera"},
		{"trappist", "exoplanet_trappist1e", "exoplanet by host star"},
		{"ion thrusters", "technology_sep", "technology by description"},
		{"upgraded dragon cargo", "launch_crs21", "launch by details"},
		{"falcon heavy cores", "rocket_falconheavy", "rocket by name"},
	}

	return &Corpus{Raws: raws, Cases: cases}
}

// BulkCorpus appends n synthetic starlink records, for search over a larger
// corpus. Object names embed the ordinal so every record stays unique.
func BulkCorpus(n int) *Corpus {
	c := BuildCorpus()
	for i := 0; i < n; i++ {
		c.Raws = append(c.Raws, models.RawRecord{
			Type:   models.TypeStarlink,
			Source: "SpaceX API",
			Payload: map[string]any{
				"id":           fmt.Sprintf("bulk%d", i),
				"object_name":  fmt.Sprintf("STARLINK-BULK-%d", i),
				"height_km":    540.0 + float64(i%30),
				"velocity_kms": 7.5,
			},
		})
	}
	return c
}
