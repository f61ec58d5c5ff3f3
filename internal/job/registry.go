package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashforge/flashforge-api/internal/domain"
	"github.com/flashforge/flashforge-api/internal/events"
	"github.com/flashforge/flashforge-api/internal/generation"
	"github.com/flashforge/flashforge-api/internal/task"
)

// Common errors returned by the Registry
var (
	// ErrNotFound indicates the queried job id has no record. This is a
	// query-time condition, not a job state.
	ErrNotFound = errors.New("job not found")

	// ErrNotReady indicates the job has not reached a terminal state yet.
	// Returned errors match it via errors.Is; use errors.As with
	// *NotReadyError to read the current status.
	ErrNotReady = errors.New("job not ready")

	ErrNilPipeline = errors.New("pipeline cannot be nil")
	ErrNilRunner   = errors.New("task runner cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
)

// NotReadyError reports a result query against a job that is still
// queued or processing.
type NotReadyError struct {
	Status domain.JobStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job not ready: status %s", e.Status)
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// View is a read-only snapshot of a job, safe to hold after the call
// returns. Readers never observe a partially written record.
type View struct {
	ID             uuid.UUID
	Status         domain.JobStatus
	Progress       string
	Result         domain.FlashcardSet
	Error          *domain.JobError
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessingTime time.Duration
}

// Pipeline is the execution dependency of the registry. Satisfied by
// *generation.Pipeline.
type Pipeline interface {
	Run(ctx context.Context, input domain.JobInput, progress generation.ProgressFunc) (domain.FlashcardSet, *domain.JobError)
}

// TaskRunner schedules background execution. Satisfied by *task.Runner.
type TaskRunner interface {
	Submit(ctx context.Context, t task.Task) error
}

// record pairs a job with its own lock and completion signal. The job is
// mutated by exactly one writer (its execution task); the lock exists so
// concurrent status/result reads never see a torn write.
type record struct {
	mu   sync.RWMutex
	job  domain.Job
	done chan struct{}
	once sync.Once
}

// snapshot returns a consistent copy of the job under the record lock.
func (rec *record) snapshot() View {
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return View{
		ID:             rec.job.ID,
		Status:         rec.job.Status,
		Progress:       rec.job.Progress,
		Result:         rec.job.Result,
		Error:          rec.job.Error,
		CreatedAt:      rec.job.CreatedAt,
		UpdatedAt:      rec.job.UpdatedAt,
		ProcessingTime: rec.job.ProcessingTime,
	}
}

// finish closes the completion channel exactly once.
func (rec *record) finish() {
	rec.once.Do(func() { close(rec.done) })
}

// Registry owns all job records and their lifecycle. The id-to-record map
// has its own lock, independent of the per-record locks, since insertion
// and per-job mutation are distinct operations.
type Registry struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]*record
	pipeline Pipeline
	runner   TaskRunner
	timeout  time.Duration
	logger   *slog.Logger
	emitter  events.EventEmitter
}

// NewRegistry creates a Registry. timeout bounds a single pipeline run;
// a non-positive value falls back to 30 seconds.
func NewRegistry(pipeline Pipeline, runner TaskRunner, timeout time.Duration, logger *slog.Logger) (*Registry, error) {
	if pipeline == nil {
		return nil, ErrNilPipeline
	}
	if runner == nil {
		return nil, ErrNilRunner
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Registry{
		jobs:     make(map[uuid.UUID]*record),
		pipeline: pipeline,
		runner:   runner,
		timeout:  timeout,
		logger:   logger.With("component", "job_registry"),
	}, nil
}

// SetEventEmitter attaches an optional lifecycle event emitter. Call
// before the registry starts accepting jobs; emission is best-effort and
// never affects job outcomes.
func (r *Registry) SetEventEmitter(emitter events.EventEmitter) {
	r.emitter = emitter
}

// emit publishes a lifecycle event if an emitter is attached.
func (r *Registry) emit(ctx context.Context, eventType string, jobID uuid.UUID, payload interface{}) {
	if r.emitter == nil {
		return
	}

	event, err := events.NewJobEvent(eventType, jobID, payload)
	if err != nil {
		r.logger.Warn("failed to build job event", "event_type", eventType, "error", err)
		return
	}
	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		r.logger.Warn("failed to emit job event", "event_type", eventType, "error", err)
	}
}

// Submit creates a queued job, schedules its background execution, and
// returns the new id. It never blocks on pipeline work. The job is
// visible to Status immediately, before execution begins.
func (r *Registry) Submit(ctx context.Context, input domain.JobInput) (uuid.UUID, error) {
	newJob, err := domain.NewJob(input)
	if err != nil {
		return uuid.Nil, err
	}

	rec := &record{job: *newJob, done: make(chan struct{})}

	r.mu.Lock()
	r.jobs[newJob.ID] = rec
	r.mu.Unlock()

	if err := r.runner.Submit(ctx, &generationTask{jobID: newJob.ID, registry: r}); err != nil {
		// Scheduling failed, so the job would stay queued forever.
		// Remove the record and surface the failure to the caller.
		r.mu.Lock()
		delete(r.jobs, newJob.ID)
		r.mu.Unlock()
		return uuid.Nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	r.logger.Info("job submitted", "job_id", newJob.ID, "text_length", len(input.Text))
	r.emit(ctx, events.TypeJobSubmitted, newJob.ID, map[string]interface{}{
		"text_length": len(input.Text),
	})
	return newJob.ID, nil
}

// Status returns a snapshot of the job's state and progress. Safe to call
// concurrently with execution.
func (r *Registry) Status(id uuid.UUID) (View, error) {
	rec := r.get(id)
	if rec == nil {
		return View{}, ErrNotFound
	}

	return rec.snapshot(), nil
}

// Result returns the flashcard set of a completed job. While the job is
// queued or processing it returns a *NotReadyError; for a failed job it
// returns the job's *domain.JobError.
func (r *Registry) Result(id uuid.UUID) (domain.FlashcardSet, error) {
	rec := r.get(id)
	if rec == nil {
		return nil, ErrNotFound
	}

	view := rec.snapshot()
	switch view.Status {
	case domain.JobStatusCompleted:
		return view.Result, nil
	case domain.JobStatusFailed:
		return nil, view.Error
	default:
		return nil, &NotReadyError{Status: view.Status}
	}
}

// Await blocks until the job reaches a terminal state or ctx expires.
// On success the caller reads the outcome via Result.
func (r *Registry) Await(ctx context.Context, id uuid.UUID) error {
	rec := r.get(id)
	if rec == nil {
		return ErrNotFound
	}

	select {
	case <-rec.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs the job's pipeline and performs the terminal state write.
// It is invoked exactly once per job by the scheduled task; no other path
// mutates terminal fields.
func (r *Registry) Execute(ctx context.Context, id uuid.UUID) error {
	rec := r.get(id)
	if rec == nil {
		return ErrNotFound
	}

	rec.mu.Lock()
	if err := rec.job.Transition(domain.JobStatusProcessing); err != nil {
		rec.mu.Unlock()
		return fmt.Errorf("job %s: %w", id, err)
	}
	rec.job.Progress = "starting"
	input := rec.job.Input
	rec.mu.Unlock()

	logger := r.logger.With("job_id", id)
	logger.Info("executing job")

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	set, jobErr := r.pipeline.Run(runCtx, input, func(step string) {
		r.setProgress(rec, step)
	})
	elapsed := time.Since(start)

	rec.mu.Lock()
	if jobErr != nil {
		if err := rec.job.Transition(domain.JobStatusFailed); err != nil {
			rec.mu.Unlock()
			rec.finish()
			return fmt.Errorf("job %s: %w", id, err)
		}
		rec.job.Error = jobErr
		rec.job.Progress = "failed"
	} else {
		if err := rec.job.Transition(domain.JobStatusCompleted); err != nil {
			rec.mu.Unlock()
			rec.finish()
			return fmt.Errorf("job %s: %w", id, err)
		}
		rec.job.Result = set
		rec.job.Progress = "completed"
	}
	rec.job.ProcessingTime = elapsed
	rec.mu.Unlock()
	rec.finish()

	if jobErr != nil {
		logger.Error("job failed",
			"kind", jobErr.Kind,
			"error", jobErr.Message,
			"elapsed", elapsed)
		r.emit(ctx, events.TypeJobFailed, id, map[string]interface{}{
			"kind":    string(jobErr.Kind),
			"message": jobErr.Message,
		})
		return jobErr
	}

	logger.Info("job completed", "cards", len(set), "elapsed", elapsed)
	r.emit(ctx, events.TypeJobCompleted, id, map[string]interface{}{
		"card_count":         len(set),
		"processing_time_ms": elapsed.Milliseconds(),
	})
	return nil
}

// setProgress updates the coarse step indicator for an executing job.
func (r *Registry) setProgress(rec *record, step string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.job.Status.IsTerminal() {
		return
	}
	rec.job.Progress = step
	rec.job.UpdatedAt = time.Now().UTC()
}

func (r *Registry) get(id uuid.UUID) *record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[id]
}

// generationTask adapts one job execution to the task.Task interface.
// The task shares the job's id so queue logs correlate directly.
type generationTask struct {
	jobID    uuid.UUID
	registry *Registry
}

func (t *generationTask) ID() uuid.UUID { return t.jobID }

func (t *generationTask) Type() string { return task.TypeFlashcardGeneration }

func (t *generationTask) Execute(ctx context.Context) error {
	return t.registry.Execute(ctx, t.jobID)
}

var _ task.Task = (*generationTask)(nil)
