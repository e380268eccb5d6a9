// Package config provides configuration loading and structs for the Tenmon service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Training  TrainingConfig  `yaml:"training"`
	Sources   SourcesConfig   `yaml:"sources"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, catalog index, and embedding
// index artifacts.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	CatalogIndexPath string `yaml:"catalog_index_path"`
	IndexDir         string `yaml:"index_dir"`
}

// EmbeddingConfig holds embedder settings. Provider selects the vectorizer
// capability: "onnx" (semantic model), "mock" (deterministic, for tests and
// development), or "none" (TF-IDF tier).
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// VectorConfig selects the vector index backend ("faiss" or "memory").
type VectorConfig struct {
	Type string `yaml:"type"`
}

// RetrievalConfig holds the answer policy constants. The thresholds and the
// confidence boost are policy values, not statistically derived.
type RetrievalConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ConfidenceBoost     float64 `yaml:"confidence_boost"`
	ConfidenceCap       float64 `yaml:"confidence_cap"`
	KeywordThreshold    float64 `yaml:"keyword_threshold"`
	TopK                int     `yaml:"top_k"`
}

// TrainingConfig holds training pipeline settings.
type TrainingConfig struct {
	ModelName     string   `yaml:"model_name"`
	Sources       []string `yaml:"sources"`
	PayloadLimit  int      `yaml:"payload_limit"`
	StarlinkLimit int      `yaml:"starlink_limit"`
}

// SourcesConfig holds upstream record source settings. NASAAPIKey falls back
// to the NASA_API_KEY environment variable, then to the public demo key.
type SourcesConfig struct {
	NASABaseURL    string `yaml:"nasa_base_url"`
	SpaceXBaseURL  string `yaml:"spacex_base_url"`
	NASAAPIKey     string `yaml:"nasa_api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WatchConfig holds index artifact watch settings for hot reload.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.CatalogIndexPath = expandPath(cfg.Storage.CatalogIndexPath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
