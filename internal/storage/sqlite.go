// Package storage provides the SQLite implementation of the Store interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/tenmon/internal/models"
)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	// Records key on (job_id, id): the same upstream record may appear in
	// several jobs' datasets.
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT NOT NULL,
		job_id TEXT NOT NULL,
		record_type TEXT NOT NULL,
		source TEXT,
		text TEXT NOT NULL,
		payload TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (job_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_job_id ON records(job_id);

	CREATE TABLE IF NOT EXISTS models (
		model_id TEXT PRIMARY KEY,
		model_name TEXT NOT NULL,
		training_data_size INTEGER NOT NULL DEFAULT 0,
		metrics TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		ready INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveDataset stores a job's records in one transaction, replacing any prior
// dataset for the same job id so retried jobs stay consistent.
func (s *SQLiteStorage) SaveDataset(ctx context.Context, jobID string, records []models.NormalizedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE job_id = ?`, jobID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, job_id, record_type, source, text, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		var payloadJSON string
		if rec.Payload != nil {
			data, err := json.Marshal(rec.Payload)
			if err != nil {
				return fmt.Errorf("failed to marshal payload for %s: %w", rec.ID, err)
			}
			payloadJSON = string(data)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, jobID, rec.Type, rec.Source, rec.Text, payloadJSON, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Dataset returns a job's records in insertion order.
func (s *SQLiteStorage) Dataset(ctx context.Context, jobID string) ([]models.NormalizedRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, record_type, source, text, payload
		 FROM records WHERE job_id = ? ORDER BY rowid`,
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.NormalizedRecord
	for rows.Next() {
		var rec models.NormalizedRecord
		var payloadJSON string
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Source, &rec.Text, &payloadJSON); err != nil {
			return nil, err
		}
		if payloadJSON != "" {
			if err := json.Unmarshal([]byte(payloadJSON), &rec.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload for %s: %w", rec.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DatasetCount returns the number of stored records across all jobs.
func (s *SQLiteStorage) DatasetCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// DeleteDataset removes a job's records.
func (s *SQLiteStorage) DeleteDataset(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE job_id = ?`, jobID)
	return err
}

// PutModel inserts or replaces a trained model record.
func (s *SQLiteStorage) PutModel(ctx context.Context, rec *models.TrainedModelRecord) error {
	metricsJSON, err := json.Marshal(rec.PerformanceMetrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO models (model_id, model_name, training_data_size, metrics, created_at, ready)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ModelID, rec.ModelName, rec.TrainingDataSize, string(metricsJSON), rec.CreatedAt, rec.ReadyForInference,
	)
	return err
}

// GetModel returns a trained model record, or ErrModelNotFound.
func (s *SQLiteStorage) GetModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_id, model_name, training_data_size, metrics, created_at, ready
		 FROM models WHERE model_id = ?`, modelID,
	)
	rec, err := scanModel(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	return rec, err
}

// ListModels returns all trained model records, newest first.
func (s *SQLiteStorage) ListModels(ctx context.Context) ([]*models.TrainedModelRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT model_id, model_name, training_data_size, metrics, created_at, ready
		 FROM models ORDER BY created_at DESC, model_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.TrainedModelRecord
	for rows.Next() {
		rec, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeployModel marks a model ready for inference and returns the updated record.
func (s *SQLiteStorage) DeployModel(ctx context.Context, modelID string) (*models.TrainedModelRecord, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE models SET ready = 1 WHERE model_id = ?`, modelID)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}
	return s.GetModel(ctx, modelID)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*models.TrainedModelRecord, error) {
	var rec models.TrainedModelRecord
	var metricsJSON string
	if err := row.Scan(&rec.ModelID, &rec.ModelName, &rec.TrainingDataSize,
		&metricsJSON, &rec.CreatedAt, &rec.ReadyForInference); err != nil {
		return nil, err
	}
	if metricsJSON != "" && metricsJSON != "null" {
		if err := json.Unmarshal([]byte(metricsJSON), &rec.PerformanceMetrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
	}
	return &rec, nil
}
