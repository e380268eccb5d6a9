// Package training runs the background training pipeline: collect records,
// normalize, embed, fit a model, and register the result. Jobs are tracked
// in an in-memory registry; each job's state is mutated only by its own
// pipeline goroutine.
package training

import (
	"sort"
	"sync"

	"github.com/hyperjump/tenmon/internal/models"
)

// Registry tracks training jobs for the lifetime of the process. Reads
// return copies, so callers can never observe a job mid-mutation. Terminal
// jobs are immutable: updates against completed or failed jobs are dropped.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*models.TrainingJob
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*models.TrainingJob)}
}

// Add registers a job. The registry stores its own copy.
func (r *Registry) Add(job *models.TrainingJob) {
	r.mu.Lock()
	r.jobs[job.JobID] = copyJob(job)
	r.mu.Unlock()
}

// Get returns a snapshot copy of a job.
func (r *Registry) Get(jobID string) (*models.TrainingJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	return copyJob(job), true
}

// List returns snapshot copies of all jobs, newest first.
func (r *Registry) List() []*models.TrainingJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]*models.TrainingJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, copyJob(job))
	}
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].StartedAt.After(jobs[j].StartedAt)
		}
		return jobs[i].JobID < jobs[j].JobID
	})
	return jobs
}

// Update applies fn to a job under the write lock. Updates against unknown
// or terminal jobs are dropped, which keeps completed and failed states
// sticky no matter what a late pipeline stage tries to write.
func (r *Registry) Update(jobID string, fn func(*models.TrainingJob)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	fn(job)
}

// Counts returns how many jobs are in each status.
func (r *Registry) Counts() map[models.JobStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[models.JobStatus]int)
	for _, job := range r.jobs {
		counts[job.Status]++
	}
	return counts
}

func copyJob(job *models.TrainingJob) *models.TrainingJob {
	out := *job
	if job.Metrics != nil {
		out.Metrics = make(map[string]float64, len(job.Metrics))
		for k, v := range job.Metrics {
			out.Metrics[k] = v
		}
	}
	return &out
}
