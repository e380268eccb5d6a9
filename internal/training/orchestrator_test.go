package training

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/knowledge"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/retrieval"
	"github.com/hyperjump/tenmon/internal/source"
	"github.com/hyperjump/tenmon/internal/storage"
)

type stubSource struct {
	name    string
	records []models.RawRecord
	err     error
	panics  bool
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, _ []string) ([]models.RawRecord, error) {
	s.calls++
	if s.panics {
		panic("source exploded")
	}
	return s.records, s.err
}

// newTestDeps wires an orchestrator over a real SQLite store and an
// in-memory TF-IDF index, with the static source as the only primary.
func newTestDeps(t *testing.T) Deps {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	indexDir := filepath.Join(dir, "index")
	idx := knowledge.NewIndexWith(knowledge.NewTFIDFVectorizer(), "memory", indexDir, zap.NewNop())
	t.Cleanup(func() { idx.Close() })

	var cfg config.Config
	config.ApplyDefaults(&cfg)
	gen := retrieval.NewGenerator(idx, cfg.Retrieval, zap.NewNop())

	return Deps{
		Index:     idx,
		Generator: gen,
		Store:     store,
		Sources:   []source.Source{source.NewStaticSource()},
		IndexDir:  indexDir,
		ModelName: cfg.Training.ModelName,
		Logger:    zap.NewNop(),
	}
}

// finishJob waits for all pipeline goroutines and returns the job snapshot.
func finishJob(t *testing.T, o *Orchestrator, jobID string) *models.TrainingJob {
	t.Helper()
	o.Wait()
	job, err := o.Status(jobID)
	if err != nil {
		t.Fatalf("Status(%s): %v", jobID, err)
	}
	return job
}

func TestOrchestratorCompletesPipeline(t *testing.T) {
	deps := newTestDeps(t)
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobCompleted {
		t.Fatalf("Status = %q (%s), want completed", job.Status, job.CurrentStep)
	}
	if job.Progress != 1.0 {
		t.Errorf("Progress = %v, want 1.0", job.Progress)
	}
	if job.CurrentStep != "training completed" {
		t.Errorf("CurrentStep = %q, want %q", job.CurrentStep, "training completed")
	}
	if job.TotalSteps != 8 {
		t.Errorf("TotalSteps = %d, want 8", job.TotalSteps)
	}

	// The static corpus has 5 records spanning 5 of the known record types,
	// and yields 8 question/answer pairs.
	if got := job.Metrics["training_examples"]; got != 8 {
		t.Errorf("training_examples = %v, want 8", got)
	}
	if got := job.Metrics["knowledge_coverage"]; math.Abs(got-5.0/11.0) > 1e-9 {
		t.Errorf("knowledge_coverage = %v, want %v", got, 5.0/11.0)
	}
	if got := job.Metrics["training_loss"]; math.Abs(got-0.245) > 1e-9 {
		t.Errorf("training_loss = %v, want 0.245", got)
	}
	if got := job.Metrics["response_accuracy"]; math.Abs(got-0.92) > 1e-9 {
		t.Errorf("response_accuracy = %v, want 0.92", got)
	}
	if got := job.Metrics["data_quality_score"]; got <= 0 || got > 1 {
		t.Errorf("data_quality_score = %v, want in (0, 1]", got)
	}
	if got := job.Metrics["embedding_dimension"]; got <= 0 {
		t.Errorf("embedding_dimension = %v, want > 0", got)
	}

	ctx := context.Background()

	// Dataset persisted under the job id.
	records, err := deps.Store.Dataset(ctx, jobID)
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("len(dataset) = %d, want 5", len(records))
	}

	// Model registered and ready.
	rec, err := deps.Store.GetModel(ctx, "model_"+jobID[:8])
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if !rec.ReadyForInference {
		t.Error("model not marked ready for inference")
	}
	if rec.ModelName != deps.ModelName {
		t.Errorf("ModelName = %q, want %q", rec.ModelName, deps.ModelName)
	}
	if rec.TrainingDataSize != 5 {
		t.Errorf("TrainingDataSize = %d, want 5", rec.TrainingDataSize)
	}
	if math.Abs(rec.PerformanceMetrics["training_loss"]-0.245) > 1e-9 {
		t.Errorf("stored training_loss = %v, want 0.245", rec.PerformanceMetrics["training_loss"])
	}

	// Index built and generator armed for keyword fallback.
	if deps.Index.Size() != 5 {
		t.Errorf("index size = %d, want 5", deps.Index.Size())
	}
	if deps.Generator.KnowledgeBaseSize() != 8 {
		t.Errorf("knowledge base size = %d, want 8", deps.Generator.KnowledgeBaseSize())
	}

	// Knowledge base artifact written for restart recovery.
	if _, err := os.Stat(filepath.Join(deps.IndexDir, "knowledge_base.json")); err != nil {
		t.Errorf("knowledge base artifact: %v", err)
	}
}

func TestOrchestratorModelNameOverride(t *testing.T) {
	deps := newTestDeps(t)
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{ModelName: "mission-briefing"})
	job := finishJob(t, o, jobID)
	if job.Status != models.JobCompleted {
		t.Fatalf("Status = %q (%s), want completed", job.Status, job.CurrentStep)
	}

	rec, err := deps.Store.GetModel(context.Background(), "model_"+jobID[:8])
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if rec.ModelName != "mission-briefing" {
		t.Errorf("ModelName = %q, want %q", rec.ModelName, "mission-briefing")
	}
}

func TestOrchestratorUnknownSourceFails(t *testing.T) {
	deps := newTestDeps(t)
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{Sources: []string{"telescope"}})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobFailed {
		t.Fatalf("Status = %q, want failed", job.Status)
	}
	if !strings.HasPrefix(job.CurrentStep, "training failed: ") {
		t.Errorf("CurrentStep = %q, want training failed prefix", job.CurrentStep)
	}
}

func TestOrchestratorEmptyCorpusFails(t *testing.T) {
	deps := newTestDeps(t)
	deps.Sources = []source.Source{&stubSource{name: "empty"}}
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobFailed {
		t.Fatalf("Status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.CurrentStep, ErrEmptyCorpus.Error()) {
		t.Errorf("CurrentStep = %q, want empty corpus reason", job.CurrentStep)
	}
}

func TestOrchestratorFallbackSourceFillsIn(t *testing.T) {
	deps := newTestDeps(t)
	deps.Sources = []source.Source{&stubSource{name: "nasa", err: errors.New("upstream down")}}
	deps.Fallback = source.NewStaticSource()
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobCompleted {
		t.Fatalf("Status = %q (%s), want completed via fallback", job.Status, job.CurrentStep)
	}
	records, err := deps.Store.Dataset(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("len(dataset) = %d, want 5 fallback records", len(records))
	}
}

func TestOrchestratorSourceSelection(t *testing.T) {
	wanted := &stubSource{name: "nasa", records: []models.RawRecord{{
		Type:    models.TypeAPOD,
		Source:  "NASA APOD",
		Payload: map[string]any{"id": "sel_1", "title": "Horsehead Nebula", "explanation": "A dark nebula in Orion."},
	}}}
	unwanted := &stubSource{name: "spacex", panics: true}

	deps := newTestDeps(t)
	deps.Sources = []source.Source{wanted, unwanted}
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{Sources: []string{"nasa"}})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobCompleted {
		t.Fatalf("Status = %q (%s), want completed", job.Status, job.CurrentStep)
	}
	if wanted.calls != 1 {
		t.Errorf("wanted source fetched %d times, want 1", wanted.calls)
	}
	if unwanted.calls != 0 {
		t.Errorf("unrequested source fetched %d times, want 0", unwanted.calls)
	}
}

func TestOrchestratorPanicFailsOnlyThatJob(t *testing.T) {
	deps := newTestDeps(t)
	deps.Sources = []source.Source{&stubSource{name: "boom", panics: true}}
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobFailed {
		t.Fatalf("Status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.CurrentStep, "panic") {
		t.Errorf("CurrentStep = %q, want panic reason", job.CurrentStep)
	}

	// The orchestrator must survive the panic and run later jobs.
	o2 := NewOrchestrator(newTestDeps(t))
	okID := o2.Submit(models.TrainingJobSpec{})
	if job := finishJob(t, o2, okID); job.Status != models.JobCompleted {
		t.Errorf("follow-up job Status = %q, want completed", job.Status)
	}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }

func (failingBackend) Fit(context.Context, []models.QAPair) (*FitResult, error) {
	return nil, errors.New("trainer crashed")
}

func TestOrchestratorBackendFailureUsesFallbackMetrics(t *testing.T) {
	deps := newTestDeps(t)
	deps.Backend = failingBackend{}
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})
	job := finishJob(t, o, jobID)

	if job.Status != models.JobCompleted {
		t.Fatalf("Status = %q (%s), want completed despite backend failure", job.Status, job.CurrentStep)
	}
	if got := job.Metrics["training_loss"]; math.Abs(got-0.245) > 1e-9 {
		t.Errorf("training_loss = %v, want fallback 0.245", got)
	}
}

func TestOrchestratorStatusNotFound(t *testing.T) {
	o := NewOrchestrator(newTestDeps(t))
	_, err := o.Status("no-such-job")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestOrchestratorJobsAndCounts(t *testing.T) {
	deps := newTestDeps(t)
	o := NewOrchestrator(deps)

	first := o.Submit(models.TrainingJobSpec{})
	o.Wait()
	second := o.Submit(models.TrainingJobSpec{Sources: []string{"telescope"}})
	o.Wait()

	jobs := o.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("len(jobs) = %d, want 2", len(jobs))
	}
	seen := map[string]bool{}
	for _, job := range jobs {
		seen[job.JobID] = true
	}
	if !seen[first] || !seen[second] {
		t.Errorf("Jobs missing submissions: %v", seen)
	}

	counts := o.Counts()
	if counts[models.JobCompleted] != 1 {
		t.Errorf("completed count = %d, want 1", counts[models.JobCompleted])
	}
	if counts[models.JobFailed] != 1 {
		t.Errorf("failed count = %d, want 1", counts[models.JobFailed])
	}
}

func TestModelID(t *testing.T) {
	tests := []struct {
		jobID string
		want  string
	}{
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "model_0f8fad5b"},
		{"abc", "model_abc"},
	}
	for _, tt := range tests {
		if got := modelID(tt.jobID); got != tt.want {
			t.Errorf("modelID(%q) = %q, want %q", tt.jobID, got, tt.want)
		}
	}
}

func TestStageNamesCoverAllSteps(t *testing.T) {
	if len(stageNames) != totalSteps {
		t.Fatalf("len(stageNames) = %d, want %d", len(stageNames), totalSteps)
	}
	for i, name := range stageNames {
		if name == "" {
			t.Errorf("stage %d has no name", i+1)
		}
	}
	if stageNames[0] != "initializing training pipeline" {
		t.Errorf("first stage = %q", stageNames[0])
	}
	if stageNames[totalSteps-1] != "training completed" {
		t.Errorf("last stage = %q", stageNames[totalSteps-1])
	}
}

func TestOrchestratorProgressIsMonotonic(t *testing.T) {
	deps := newTestDeps(t)
	o := NewOrchestrator(deps)

	jobID := o.Submit(models.TrainingJobSpec{})

	var last float64
	for {
		job, err := o.Status(jobID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if job.Progress < last {
			t.Fatalf("progress went backwards: %v -> %v", last, job.Progress)
		}
		last = job.Progress
		if job.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	o.Wait()

	if last != 1.0 {
		t.Errorf("final progress = %v, want 1.0", last)
	}
}
