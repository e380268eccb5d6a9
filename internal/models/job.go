package models

import "time"

// JobStatus is the lifecycle state of a training job.
type JobStatus string

const (
	// JobQueued means the job is registered but its pipeline has not started.
	JobQueued JobStatus = "queued"
	// JobRunning means the pipeline goroutine is executing stages.
	JobRunning JobStatus = "running"
	// JobCompleted is terminal: all stages succeeded and a model was registered.
	JobCompleted JobStatus = "completed"
	// JobFailed is terminal: a stage errored or panicked; no model was registered.
	JobFailed JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// TrainingJobSpec describes a training request. Empty Sources means all
// configured sources.
type TrainingJobSpec struct {
	ModelName string   `json:"model_name,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

// TrainingJob is the registry entry for one pipeline run. Progress is
// monotonically non-decreasing while Status is running; terminal states are
// sticky. Mutated only by the job's own goroutine.
type TrainingJob struct {
	JobID       string             `json:"job_id"`
	Status      JobStatus          `json:"status"`
	Progress    float64            `json:"progress"`
	CurrentStep string             `json:"current_step"`
	TotalSteps  int                `json:"total_steps"`
	StartedAt   time.Time          `json:"started_at"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// TrainedModelRecord is written to the model store on successful job
// completion, never on failure.
type TrainedModelRecord struct {
	ModelID            string             `json:"model_id" db:"model_id"`
	ModelName          string             `json:"model_name" db:"model_name"`
	TrainingDataSize   int                `json:"training_data_size" db:"training_data_size"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics" db:"metrics"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	ReadyForInference  bool               `json:"ready_for_inference" db:"ready"`
}
