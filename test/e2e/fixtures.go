package e2e

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/catalog"
	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/knowledge"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
	"github.com/hyperjump/tenmon/internal/training"
)

// sliceSource serves a fixed record slice, or a fixed error.
type sliceSource struct {
	name    string
	records []models.RawRecord
	err     error
}

func (s *sliceSource) Name() string { return s.name }

func (s *sliceSource) Fetch(_ context.Context, _ []string) ([]models.RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

// harness wires every component the pipeline touches inside one temp dir.
type harness struct {
	dir          string
	indexDir     string
	store        *storage.SQLiteStorage
	index        *knowledge.Index
	catalog      *catalog.Catalog
	generator    *retrieval.Generator
	orchestrator *training.Orchestrator
}

func retrievalDefaults() config.RetrievalConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg.Retrieval
}

// newHarness builds a TF-IDF-tier stack over SQLite, bleve and the given
// sources, mirroring the production wiring in cmd/tenmon.
func newHarness(t *testing.T, sources ...source.Source) *harness {
	t.Helper()
	dir := t.TempDir()
	indexDir := filepath.Join(dir, "index")
	logger := zap.NewNop()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	index := knowledge.NewIndexWith(knowledge.NewTFIDFVectorizer(), "memory", indexDir, logger)
	t.Cleanup(func() { _ = index.Close() })

	cat, err := catalog.New(filepath.Join(dir, "catalog"), logger)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = cat.Close() })

	generator := retrieval.NewGenerator(index, retrievalDefaults(), logger)

	orchestrator := training.NewOrchestrator(training.Deps{
		Index:     index,
		Generator: generator,
		Catalog:   cat,
		Store:     store,
		Sources:   sources,
		IndexDir:  indexDir,
		ModelName: "space_knowledge",
		Logger:    logger,
	})

	return &harness{
		dir:          dir,
		indexDir:     indexDir,
		store:        store,
		index:        index,
		catalog:      cat,
		generator:    generator,
		orchestrator: orchestrator,
	}
}

// waitJob polls until the job is terminal, asserting progress never
// decreases between samples. Returns the final snapshot.
func waitJob(t *testing.T, orch *training.Orchestrator, jobID string) *models.TrainingJob {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	lastProgress := -1.0
	for time.Now().Before(deadline) {
		job, err := orch.Status(jobID)
		if err != nil {
			t.Fatalf("status %s: %v", jobID, err)
		}
		if job.Progress < lastProgress {
			t.Fatalf("progress went backwards: %v -> %v", lastProgress, job.Progress)
		}
		lastProgress = job.Progress
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", jobID)
	return nil
}
