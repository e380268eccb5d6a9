package config

import "os"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/tenmon/data/db/records.db"
	}
	if cfg.Storage.CatalogIndexPath == "" {
		cfg.Storage.CatalogIndexPath = "/usr/local/var/tenmon/data/indices/catalog"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "/usr/local/var/tenmon/data/indices/embeddings"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/tenmon/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "faiss"
	}
	if cfg.Retrieval.SimilarityThreshold == 0 {
		cfg.Retrieval.SimilarityThreshold = 0.3
	}
	if cfg.Retrieval.ConfidenceBoost == 0 {
		cfg.Retrieval.ConfidenceBoost = 0.3
	}
	if cfg.Retrieval.ConfidenceCap == 0 {
		cfg.Retrieval.ConfidenceCap = 0.95
	}
	if cfg.Retrieval.KeywordThreshold == 0 {
		cfg.Retrieval.KeywordThreshold = 0.1
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Training.ModelName == "" {
		cfg.Training.ModelName = "space_knowledge"
	}
	if cfg.Training.Sources == nil {
		cfg.Training.Sources = []string{"nasa", "spacex"}
	}
	if cfg.Training.PayloadLimit == 0 {
		cfg.Training.PayloadLimit = 100
	}
	if cfg.Training.StarlinkLimit == 0 {
		cfg.Training.StarlinkLimit = 50
	}
	if cfg.Sources.NASABaseURL == "" {
		cfg.Sources.NASABaseURL = "https://api.nasa.gov"
	}
	if cfg.Sources.SpaceXBaseURL == "" {
		cfg.Sources.SpaceXBaseURL = "https://api.spacexdata.com/v4"
	}
	if cfg.Sources.NASAAPIKey == "" {
		if key := os.Getenv("NASA_API_KEY"); key != "" {
			cfg.Sources.NASAAPIKey = key
		} else {
			cfg.Sources.NASAAPIKey = "DEMO_KEY"
		}
	}
	if cfg.Sources.TimeoutSeconds == 0 {
		cfg.Sources.TimeoutSeconds = 30
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
