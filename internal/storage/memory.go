package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/tenmon/internal/models"
)

// MemoryModelStore is an in-memory ModelStore for tests and ephemeral runs.
type MemoryModelStore struct {
	mu      sync.RWMutex
	records map[string]*models.TrainedModelRecord
}

// NewMemoryModelStore creates an empty in-memory model store.
func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{records: make(map[string]*models.TrainedModelRecord)}
}

// PutModel implements ModelStore.
func (m *MemoryModelStore) PutModel(ctx context.Context, rec *models.TrainedModelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := copyModel(rec)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.records[stored.ModelID] = stored
	return nil
}

// GetModel implements ModelStore.
func (m *MemoryModelStore) GetModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	return copyModel(rec), nil
}

// ListModels implements ModelStore.
func (m *MemoryModelStore) ListModels(ctx context.Context) ([]*models.TrainedModelRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]*models.TrainedModelRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, copyModel(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ModelID < records[j].ModelID
	})
	return records, nil
}

// DeployModel implements ModelStore.
func (m *MemoryModelStore) DeployModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	rec.ReadyForInference = true
	return copyModel(rec), nil
}

func copyModel(rec *models.TrainedModelRecord) *models.TrainedModelRecord {
	out := *rec
	if rec.PerformanceMetrics != nil {
		out.PerformanceMetrics = make(map[string]float64, len(rec.PerformanceMetrics))
		for k, v := range rec.PerformanceMetrics {
			out.PerformanceMetrics[k] = v
		}
	}
	return &out
}
