package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: ./data/records.db
embedding:
  provider: mock
  dimensions: 64
retrieval:
  similarity_threshold: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.Debug {
		t.Error("expected debug true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server config = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 64 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Retrieval.SimilarityThreshold != 0.5 {
		t.Errorf("similarity threshold = %f", cfg.Retrieval.SimilarityThreshold)
	}
	// Relative ./ paths resolve against the config directory.
	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database path not expanded: %s", cfg.Storage.DatabasePath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Host != "localhost" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "onnx" {
		t.Errorf("provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.MaxTokens != 256 {
		t.Errorf("max tokens = %d", cfg.Embedding.MaxTokens)
	}
	if cfg.Vector.Type != "faiss" {
		t.Errorf("vector type = %q", cfg.Vector.Type)
	}
	if cfg.Retrieval.SimilarityThreshold != 0.3 {
		t.Errorf("similarity threshold = %f", cfg.Retrieval.SimilarityThreshold)
	}
	if cfg.Retrieval.ConfidenceCap != 0.95 {
		t.Errorf("confidence cap = %f", cfg.Retrieval.ConfidenceCap)
	}
	if cfg.Retrieval.KeywordThreshold != 0.1 {
		t.Errorf("keyword threshold = %f", cfg.Retrieval.KeywordThreshold)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("top k = %d", cfg.Retrieval.TopK)
	}
	if len(cfg.Training.Sources) != 2 {
		t.Errorf("default sources = %v", cfg.Training.Sources)
	}
	if cfg.Sources.SpaceXBaseURL == "" {
		t.Error("spacex base url unset")
	}
	if cfg.Watch.DebounceMS != 400 {
		t.Errorf("debounce = %d", cfg.Watch.DebounceMS)
	}
}

func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 3000
	cfg.Retrieval.TopK = 5
	ApplyDefaults(cfg)

	if cfg.Server.Port != 3000 {
		t.Errorf("explicit port overwritten: %d", cfg.Server.Port)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("explicit top k overwritten: %d", cfg.Retrieval.TopK)
	}
}
