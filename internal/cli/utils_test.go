package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/tenmon/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAnswer_Text(t *testing.T) {
	answer := &models.RetrievalAnswer{
		Text:              "Based on trained model data (similarity: 0.82):\n\nEagle Nebula Pillars\n\nSource: NASA APOD",
		Confidence:        0.95,
		Source:            "NASA APOD",
		MatchedSimilarity: 0.82,
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, answer, "no match", OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Eagle Nebula Pillars") {
		t.Errorf("output missing answer text: %q", out)
	}
	if !strings.Contains(out, "Confidence: 0.95") {
		t.Errorf("output missing confidence: %q", out)
	}
}

func TestWriteAnswer_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, nil, "I don't have information about that.", OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "I don't have information about that.") {
		t.Errorf("output = %q, want no-match text", buf.String())
	}

	buf.Reset()
	if err := WriteAnswer(&buf, nil, "nope", OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if matched, _ := decoded["matched"].(bool); matched {
		t.Error("matched = true for nil answer, want false")
	}
}

func TestWriteAnswer_JSONRoundTrip(t *testing.T) {
	answer := &models.RetrievalAnswer{Text: "hello", Confidence: 0.5, Source: "static", MatchedSimilarity: 0.42}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, answer, "", OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["response"] != "hello" {
		t.Errorf("response = %v, want hello", decoded["response"])
	}
	if sim, _ := decoded["matched_similarity"].(float64); sim != 0.42 {
		t.Errorf("matched_similarity = %v, want 0.42", decoded["matched_similarity"])
	}
}

func TestWriteCatalogResults(t *testing.T) {
	response := &models.CatalogResponse{
		Query:     "eagle nebula",
		QueryTime: 3,
		Total:     1,
		Hits: []*models.CatalogHit{
			{ID: "apod_training_1", Type: "apod", Source: "NASA APOD", Score: 1.2, Rank: 1,
				Text: "NASA Astronomy Picture: Eagle Nebula Pillars."},
		},
	}

	var buf bytes.Buffer
	if err := WriteCatalogResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"eagle nebula", "apod_training_1", "Rank: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	if err := WriteCatalogResults(&buf, response, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1; lines != 1 {
		t.Errorf("compact output has %d lines, want 1", lines)
	}

	buf.Reset()
	if err := WriteCatalogResults(&buf, response, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.CatalogResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Total != 1 || len(decoded.Hits) != 1 {
		t.Errorf("JSON round trip lost hits: %+v", decoded)
	}
}

func TestWriteCatalogResults_Suggestions(t *testing.T) {
	response := &models.CatalogResponse{
		Query:       "nebulla",
		Suggestions: []string{"nebula"},
	}
	var buf bytes.Buffer
	if err := WriteCatalogResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Did you mean: nebula?") {
		t.Errorf("output missing suggestion: %q", buf.String())
	}
}

func TestWriteJob(t *testing.T) {
	job := &models.TrainingJob{
		JobID:       "job-1",
		Status:      models.JobRunning,
		Progress:    0.5,
		CurrentStep: "building vector embeddings",
		TotalSteps:  8,
		StartedAt:   time.Now().UTC(),
	}
	var buf bytes.Buffer
	if err := WriteJob(&buf, job, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "50%") {
		t.Errorf("output missing progress percentage: %q", out)
	}
	if !strings.Contains(out, "building vector embeddings") {
		t.Errorf("output missing current step: %q", out)
	}

	job.Status = models.JobCompleted
	job.Metrics = map[string]float64{"training_loss": 0.245, "data_quality_score": 1.0}
	buf.Reset()
	if err := WriteJob(&buf, job, OutputText); err != nil {
		t.Fatal(err)
	}
	out = buf.String()
	lossIdx := strings.Index(out, "training_loss")
	qualityIdx := strings.Index(out, "data_quality_score")
	if lossIdx < 0 || qualityIdx < 0 {
		t.Fatalf("output missing metrics: %q", out)
	}
	if qualityIdx > lossIdx {
		t.Error("metrics are not sorted by key")
	}
}

func TestWriteModels(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteModels(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No trained models") {
		t.Errorf("empty list output = %q", buf.String())
	}

	records := []*models.TrainedModelRecord{
		{
			ModelID:            "model_abc12345",
			ModelName:          "space_knowledge",
			TrainingDataSize:   42,
			PerformanceMetrics: map[string]float64{"training_loss": 0.245},
			CreatedAt:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			ReadyForInference:  true,
		},
	}
	buf.Reset()
	if err := WriteModels(&buf, records, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"space_knowledge", "model_abc12345", "Records: 42", "Ready: yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}

	buf.Reset()
	if err := WriteModels(&buf, records, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "model_abc12345\t") {
		t.Errorf("compact output = %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"hello", 0, "hello"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		s        string
		maxWords int
		want     string
	}{
		{"one two three", 5, "one two three"},
		{"one two three four", 2, "one two..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := TruncateWords(tt.s, tt.maxWords); got != tt.want {
			t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
		}
	}
}
