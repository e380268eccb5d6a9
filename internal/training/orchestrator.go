package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/knowledge"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/normalize"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
)

var (
	// ErrJobNotFound is returned by Status for unknown job ids.
	ErrJobNotFound = errors.New("training job not found")
	// ErrEmptyCorpus fails a job when collection produced no usable records.
	ErrEmptyCorpus = errors.New("no records collected for training")
)

// totalSteps is the number of pipeline stages every job reports.
const totalSteps = 8

// validationSample bounds how many knowledge-base questions the validation
// stage replays against the generator.
const validationSample = 5

// stageNames are the CurrentStep values in pipeline order. The stage boundary
// is recorded before the stage's work runs, so a job that fails mid-stage
// still shows which stage it died in.
var stageNames = [totalSteps]string{
	"initializing training pipeline",
	"collecting mission records",
	"preparing training dataset",
	"building vector embeddings",
	"training model",
	"validating model performance",
	"optimizing for inference",
	"training completed",
}

// CatalogIndexer receives each job's normalized records for keyword search.
// It is optional; a nil indexer skips the step.
type CatalogIndexer interface {
	IndexBatch(ctx context.Context, records []models.NormalizedRecord) error
}

// Deps are the collaborators a pipeline run needs. Index, Generator and
// Store are required. Catalog, Fallback and Backend may be nil; a nil
// Backend is replaced with FallbackTrainer.
type Deps struct {
	Index     *knowledge.Index
	Generator *retrieval.Generator
	Catalog   CatalogIndexer
	Store     storage.Store
	Backend   Backend
	Sources   []source.Source
	Fallback  source.Source
	IndexDir  string
	ModelName string
	Logger    *zap.Logger
}

// Orchestrator runs training jobs in background goroutines and tracks their
// state. Submitting a job returns immediately; callers poll Status.
type Orchestrator struct {
	deps     Deps
	logger   *zap.Logger
	registry *Registry
	wg       sync.WaitGroup
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Backend == nil {
		deps.Backend = FallbackTrainer{}
	}
	return &Orchestrator{
		deps:     deps,
		logger:   deps.Logger,
		registry: NewRegistry(),
	}
}

// Submit registers a job and starts its pipeline goroutine.
func (o *Orchestrator) Submit(spec models.TrainingJobSpec) string {
	jobID := uuid.NewString()
	o.registry.Add(&models.TrainingJob{
		JobID:       jobID,
		Status:      models.JobQueued,
		CurrentStep: "queued",
		TotalSteps:  totalSteps,
		StartedAt:   time.Now().UTC(),
	})
	o.logger.Info("training job submitted",
		zap.String("job_id", jobID),
		zap.Strings("sources", spec.Sources))
	o.wg.Add(1)
	go o.run(jobID, spec)
	return jobID
}

// Status returns a snapshot of a job, or ErrJobNotFound.
func (o *Orchestrator) Status(jobID string) (*models.TrainingJob, error) {
	job, ok := o.registry.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return job, nil
}

// Jobs returns snapshots of all jobs, newest first.
func (o *Orchestrator) Jobs() []*models.TrainingJob {
	return o.registry.List()
}

// Counts returns the number of jobs per status.
func (o *Orchestrator) Counts() map[models.JobStatus]int {
	return o.registry.Counts()
}

// Wait blocks until every submitted pipeline goroutine has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run executes one pipeline. A panic anywhere in the pipeline fails only
// this job, never the process.
func (o *Orchestrator) run(jobID string, spec models.TrainingJobSpec) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.fail(jobID, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := o.pipeline(context.Background(), jobID, spec); err != nil {
		o.fail(jobID, err)
	}
}

func (o *Orchestrator) fail(jobID string, err error) {
	o.logger.Error("training job failed", zap.String("job_id", jobID), zap.Error(err))
	o.registry.Update(jobID, func(job *models.TrainingJob) {
		job.Status = models.JobFailed
		job.CurrentStep = "training failed: " + err.Error()
	})
}

// stage records the i-th stage boundary before the stage's work begins.
func (o *Orchestrator) stage(jobID string, i int) {
	o.registry.Update(jobID, func(job *models.TrainingJob) {
		job.Status = models.JobRunning
		job.CurrentStep = stageNames[i]
		job.Progress = float64(i+1) / float64(totalSteps)
	})
	o.logger.Info("training stage",
		zap.String("job_id", jobID),
		zap.Int("step", i+1),
		zap.String("name", stageNames[i]))
}

func (o *Orchestrator) pipeline(ctx context.Context, jobID string, spec models.TrainingJobSpec) error {
	o.stage(jobID, 0)

	o.stage(jobID, 1)
	raws, err := o.collect(ctx, spec.Sources)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return ErrEmptyCorpus
	}

	o.stage(jobID, 2)
	records := normalize.NormalizeAll(raws)
	if len(records) == 0 {
		return ErrEmptyCorpus
	}
	quality := normalize.Quality(records)
	pairs := retrieval.BuildKnowledgeBase(records)
	if err := o.deps.Store.SaveDataset(ctx, jobID, records); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if o.deps.Catalog != nil {
		if err := o.deps.Catalog.IndexBatch(ctx, records); err != nil {
			o.logger.Warn("catalog indexing failed", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	o.stage(jobID, 3)
	if err := o.deps.Index.Build(ctx, records); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	o.stage(jobID, 4)
	fit, err := o.deps.Backend.Fit(ctx, pairs)
	if err != nil || fit == nil {
		o.logger.Warn("training backend failed, using fallback metrics",
			zap.String("backend", o.deps.Backend.Name()),
			zap.Error(err))
		fit, _ = FallbackTrainer{}.Fit(ctx, pairs)
	}

	o.stage(jobID, 5)
	o.deps.Generator.SetKnowledgeBase(pairs)
	o.validate(ctx, jobID, pairs)

	o.stage(jobID, 6)
	if err := retrieval.SaveKnowledgeBase(o.deps.IndexDir, pairs); err != nil {
		return fmt.Errorf("save knowledge base: %w", err)
	}

	o.stage(jobID, 7)
	metrics := map[string]float64{
		"data_quality_score":  quality,
		"training_examples":   float64(len(pairs)),
		"embedding_dimension": float64(o.deps.Index.Dimensions()),
		"knowledge_coverage":  coverage(records),
		"response_accuracy":   fit.ValidationAccuracy,
		"training_loss":       fit.Loss,
	}
	rec := &models.TrainedModelRecord{
		ModelID:            modelID(jobID),
		ModelName:          o.modelName(spec),
		TrainingDataSize:   len(records),
		PerformanceMetrics: metrics,
		CreatedAt:          time.Now().UTC(),
		ReadyForInference:  true,
	}
	if err := o.deps.Store.PutModel(ctx, rec); err != nil {
		return fmt.Errorf("register model: %w", err)
	}

	o.registry.Update(jobID, func(job *models.TrainingJob) {
		job.Status = models.JobCompleted
		job.Progress = 1.0
		job.CurrentStep = stageNames[totalSteps-1]
		job.Metrics = metrics
	})
	o.logger.Info("training job completed",
		zap.String("job_id", jobID),
		zap.String("model_id", rec.ModelID),
		zap.Int("records", len(records)),
		zap.Int("qa_pairs", len(pairs)))
	return nil
}

// collect fetches from the selected sources, tolerating per-source failure.
// When any primary source fails entirely, the fallback source tops up the
// corpus once so training can still proceed.
func (o *Orchestrator) collect(ctx context.Context, requested []string) ([]models.RawRecord, error) {
	sources := o.selectSources(requested)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources matched %v", requested)
	}
	var (
		records  []models.RawRecord
		degraded bool
	)
	for _, src := range sources {
		recs, err := src.Fetch(ctx, nil)
		if err != nil {
			o.logger.Warn("source fetch failed", zap.String("source", src.Name()), zap.Error(err))
			degraded = true
			continue
		}
		records = append(records, recs...)
	}
	if degraded && o.deps.Fallback != nil {
		recs, err := o.deps.Fallback.Fetch(ctx, nil)
		if err != nil {
			o.logger.Warn("fallback fetch failed", zap.Error(err))
		} else {
			o.logger.Info("filled in fallback records", zap.Int("count", len(recs)))
			records = append(records, recs...)
		}
	}
	return records, nil
}

func (o *Orchestrator) selectSources(requested []string) []source.Source {
	if len(requested) == 0 {
		return o.deps.Sources
	}
	want := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		want[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	var out []source.Source
	for _, src := range o.deps.Sources {
		if _, ok := want[src.Name()]; ok {
			out = append(out, src)
		}
	}
	return out
}

// validate replays a few knowledge-base questions through the generator and
// logs how many produced an answer. Validation never fails the job.
func (o *Orchestrator) validate(ctx context.Context, jobID string, pairs []models.QAPair) {
	if len(pairs) == 0 {
		return
	}
	sample := validationSample
	if len(pairs) < sample {
		sample = len(pairs)
	}
	answered := 0
	for _, pair := range pairs[:sample] {
		if _, err := o.deps.Generator.Answer(ctx, pair.Question); err == nil {
			answered++
		}
	}
	o.logger.Info("validation sample",
		zap.String("job_id", jobID),
		zap.Int("answered", answered),
		zap.Int("sampled", sample))
}

func (o *Orchestrator) modelName(spec models.TrainingJobSpec) string {
	if spec.ModelName != "" {
		return spec.ModelName
	}
	return o.deps.ModelName
}

// modelID derives a stable short model id from the job id.
func modelID(jobID string) string {
	if len(jobID) > 8 {
		return "model_" + jobID[:8]
	}
	return "model_" + jobID
}

func coverage(records []models.NormalizedRecord) float64 {
	types := make(map[string]struct{})
	for _, rec := range records {
		types[rec.Type] = struct{}{}
	}
	return float64(len(types)) / float64(len(models.KnownRecordTypes))
}
