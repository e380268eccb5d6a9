package normalize

import (
	"math"
	"strings"
	"testing"

	"github.com/hyperjump/tenmon/internal/models"
)

func TestNormalize_APOD(t *testing.T) {
	raw := models.RawRecord{
		Type:   models.TypeAPOD,
		Source: "NASA APOD",
		Payload: map[string]any{
			"title":       "Eagle Nebula Pillars",
			"description": "Towering tendrils of cosmic dust and gas.",
		},
	}
	rec := Normalize(raw)
	if rec.Text == "" {
		t.Fatal("expected non-empty text")
	}
	if !strings.Contains(rec.Text, "Eagle Nebula Pillars") {
		t.Errorf("text missing title: %q", rec.Text)
	}
	if !strings.HasPrefix(rec.Text, "NASA Astronomy Picture: ") {
		t.Errorf("unexpected prefix: %q", rec.Text)
	}
	if rec.ID != "apod_eagle_nebula_pillars" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Source != "NASA APOD" {
		t.Errorf("Source = %q", rec.Source)
	}
}

func TestNormalize_LaunchSuccessStates(t *testing.T) {
	tests := []struct {
		name    string
		success any
		want    string
	}{
		{"successful", true, "was successful"},
		{"unsuccessful", false, "was unsuccessful"},
		{"pending", nil, "was pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{
				"name":          "CRS-7",
				"flight_number": float64(25),
			}
			if tt.success != nil {
				payload["success"] = tt.success
			}
			rec := Normalize(models.RawRecord{Type: models.TypeLaunch, Source: "SpaceX API", Payload: payload})
			if !strings.Contains(rec.Text, tt.want) {
				t.Errorf("text = %q, want substring %q", rec.Text, tt.want)
			}
			if !strings.Contains(rec.Text, "Flight #25") {
				t.Errorf("flight number not rendered: %q", rec.Text)
			}
		})
	}
}

func TestNormalize_PayloadCustomers(t *testing.T) {
	rec := Normalize(models.RawRecord{
		Type:   models.TypePayload,
		Source: "SpaceX API",
		Payload: map[string]any{
			"name":      "CRS-21",
			"type":      "Dragon 2.0",
			"mass_kg":   float64(2972),
			"customers": []any{"NASA (CRS)", "ESA"},
		},
	})
	if !strings.Contains(rec.Text, "Customers: NASA (CRS), ESA") {
		t.Errorf("customers not joined: %q", rec.Text)
	}
	if !strings.Contains(rec.Text, "Mass: 2972kg") {
		t.Errorf("mass not rendered: %q", rec.Text)
	}

	rec = Normalize(models.RawRecord{
		Type:    models.TypePayload,
		Source:  "SpaceX API",
		Payload: map[string]any{"name": "Starlink-30"},
	})
	if !strings.Contains(rec.Text, "Customers: Unknown") {
		t.Errorf("missing customers should render Unknown: %q", rec.Text)
	}
}

func TestNormalize_EveryKnownTypeHasTemplate(t *testing.T) {
	payloads := map[string]map[string]any{
		models.TypeAPOD:       {"title": "Crab Nebula"},
		models.TypeNEO:        {"name": "Bennu", "hazardous": false, "magnitude": 20.9},
		models.TypeMarsPhoto:  {"rover": "Curiosity", "sol": float64(1000), "camera": "MAST"},
		models.TypeExoplanet:  {"planet_name": "TRAPPIST-1 e", "host_star": "TRAPPIST-1", "discovery_year": float64(2017)},
		models.TypeTechnology: {"title": "Solar Electric Propulsion", "description": "Ion propulsion systems."},
		models.TypeLaunch:     {"name": "Starlink 4-1", "flight_number": float64(130), "success": true},
		models.TypeRocket:     {"name": "Falcon 9", "description": "Reusable two-stage rocket.", "success_rate_pct": float64(98)},
		models.TypeCapsule:    {"serial": "C208", "type": "Dragon 2.0", "status": "active", "reuse_count": float64(3)},
		models.TypeCrew:       {"name": "Robert Behnken", "agency": "NASA", "status": "active"},
		models.TypePayload:    {"name": "ANASIS-II", "type": "Satellite"},
		models.TypeStarlink:   {"object_name": "STARLINK-1007", "height_km": 550.1, "velocity_kms": 7.6},
	}
	for _, typ := range models.KnownRecordTypes {
		payload, ok := payloads[typ]
		if !ok {
			t.Fatalf("no payload fixture for type %q", typ)
		}
		rec := Normalize(models.RawRecord{Type: typ, Source: "test", Payload: payload})
		if rec.Text == "" {
			t.Errorf("type %q rendered empty text", typ)
		}
		if rec.ID == "" || !strings.HasPrefix(rec.ID, typ+"_") {
			t.Errorf("type %q derived ID %q", typ, rec.ID)
		}
	}
}

func TestNormalize_DropCases(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"unknown type", models.RawRecord{Type: "telemetry", Payload: map[string]any{"name": "x"}}},
		{"apod without title", models.RawRecord{Type: models.TypeAPOD, Payload: map[string]any{"description": "text"}}},
		{"launch without name", models.RawRecord{Type: models.TypeLaunch, Payload: map[string]any{"flight_number": float64(1)}}},
		{"nil payload", models.RawRecord{Type: models.TypeNEO}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := Normalize(tt.raw); rec.Text != "" {
				t.Errorf("expected empty text, got %q", rec.Text)
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := models.RawRecord{
		Type:    models.TypeNEO,
		Source:  "NASA NEO",
		Payload: map[string]any{"name": "433 Eros", "hazardous": false, "magnitude": 10.31},
	}
	a, b := Normalize(raw), Normalize(raw)
	if a.Text != b.Text {
		t.Errorf("texts differ: %q vs %q", a.Text, b.Text)
	}
	if a.ID != b.ID {
		t.Errorf("IDs differ: %q vs %q", a.ID, b.ID)
	}
}

func TestNormalize_ExplicitIDWins(t *testing.T) {
	rec := Normalize(models.RawRecord{
		Type:    models.TypeAPOD,
		Source:  "NASA APOD",
		Payload: map[string]any{"id": "training_1", "title": "Eagle Nebula Pillars"},
	})
	if rec.ID != "apod_training_1" {
		t.Errorf("ID = %q, want apod_training_1", rec.ID)
	}
}

func TestNormalizeAll_DropsUnusable(t *testing.T) {
	raws := []models.RawRecord{
		{Type: models.TypeAPOD, Source: "NASA APOD", Payload: map[string]any{"title": "Crab Nebula", "description": "d"}},
		{Type: "bogus", Source: "x", Payload: map[string]any{"title": "ignored"}},
		{Type: models.TypeCrew, Source: "SpaceX API", Payload: map[string]any{"agency": "NASA"}},
	}
	records := NormalizeAll(raws)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Type != models.TypeAPOD {
		t.Errorf("kept wrong record: %+v", records[0])
	}
}

func TestQuality(t *testing.T) {
	if q := Quality(nil); q != 0 {
		t.Errorf("empty batch quality = %v, want 0", q)
	}
	full := models.NormalizedRecord{
		ID: "apod_1", Type: models.TypeAPOD, Source: "NASA APOD",
		Text: "text", Payload: map[string]any{"title": "t"},
	}
	if q := Quality([]models.NormalizedRecord{full}); math.Abs(q-1.0) > 1e-9 {
		t.Errorf("complete record quality = %v, want 1.0", q)
	}
	noPayload := full
	noPayload.Payload = nil
	if q := Quality([]models.NormalizedRecord{noPayload}); math.Abs(q-0.8) > 1e-9 {
		t.Errorf("quality without payload = %v, want 0.8", q)
	}
	if q := Quality([]models.NormalizedRecord{full, noPayload}); math.Abs(q-0.9) > 1e-9 {
		t.Errorf("averaged quality = %v, want 0.9", q)
	}
}
