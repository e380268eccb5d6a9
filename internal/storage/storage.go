// Package storage persists training datasets and trained model records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/tenmon/internal/models"
)

// ErrModelNotFound is returned for lookups and deploys of unknown model ids.
var ErrModelNotFound = errors.New("model not found")

// DatasetStore persists the normalized records each training job collected.
type DatasetStore interface {
	// SaveDataset stores a job's records, replacing any prior dataset for
	// the same job id.
	SaveDataset(ctx context.Context, jobID string, records []models.NormalizedRecord) error
	// Dataset returns a job's records in insertion order.
	Dataset(ctx context.Context, jobID string) ([]models.NormalizedRecord, error)
	// DatasetCount returns the number of stored records across all jobs.
	DatasetCount(ctx context.Context) (int64, error)
	// DeleteDataset removes a job's records.
	DeleteDataset(ctx context.Context, jobID string) error
}

// ModelStore persists trained model records.
type ModelStore interface {
	PutModel(ctx context.Context, rec *models.TrainedModelRecord) error
	// GetModel returns ErrModelNotFound for unknown ids.
	GetModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error)
	// ListModels returns records newest first.
	ListModels(ctx context.Context) ([]*models.TrainedModelRecord, error)
	// DeployModel marks a model ready for inference and returns the updated
	// record, or ErrModelNotFound.
	DeployModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error)
}

// Store combines dataset and model persistence behind one handle.
type Store interface {
	DatasetStore
	ModelStore
	Close() error
}
