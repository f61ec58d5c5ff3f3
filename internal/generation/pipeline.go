package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flashforge/flashforge-api/internal/domain"
	"github.com/flashforge/flashforge-api/internal/generation/repair"
)

// Coarse-grained progress steps emitted while a job executes.
const (
	ProgressGenerating = "generating"
	ProgressRepairing  = "repairing"
	ProgressValidating = "validating"
)

// Config holds pipeline tuning knobs.
type Config struct {
	// MaxRetries is how many additional model calls are made after the
	// first one fails with a transport error.
	MaxRetries int

	// RetryDelay is the pause between transport retry attempts.
	RetryDelay time.Duration

	// StrictRetry enables one regeneration with a structured-only prompt
	// after all repair strategies fail on the first response.
	StrictRetry bool
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  2,
		RetryDelay:  500 * time.Millisecond,
		StrictRetry: true,
	}
}

// ProgressFunc receives coarse step updates as the pipeline advances.
// Implementations must be cheap; they are called on the worker goroutine.
type ProgressFunc func(step string)

// Pipeline orchestrates one job's worth of work: build the prompt, call
// the model, repair the response, and produce either a validated
// flashcard set or a single classified failure. Transport retries and
// repair fallbacks are internal; callers only ever see the final outcome.
type Pipeline struct {
	client  ModelClient
	prompts *PromptBuilder
	config  Config
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline with the given dependencies.
func NewPipeline(client ModelClient, prompts *PromptBuilder, config Config, logger *slog.Logger) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: model client cannot be nil", ErrInvalidConfig)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt builder cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultConfig().MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultConfig().RetryDelay
	}

	return &Pipeline{
		client:  client,
		prompts: prompts,
		config:  config,
		logger:  logger,
	}, nil
}

// Run executes the pipeline for one job. It never panics and never
// returns both a result and an error; any unexpected internal failure is
// converted to an ErrorKindInternal job error so the job always reaches a
// terminal state.
func (p *Pipeline) Run(
	ctx context.Context,
	input domain.JobInput,
	progress ProgressFunc,
) (set domain.FlashcardSet, jobErr *domain.JobError) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered", "panic", r)
			set = nil
			jobErr = domain.NewJobError(domain.ErrorKindInternal, fmt.Sprintf("unexpected internal failure: %v", r))
		}
	}()

	if progress == nil {
		progress = func(string) {}
	}

	prompt, err := p.prompts.Build(input.Text)
	if err != nil {
		return nil, p.classify(ctx, err)
	}

	progress(ProgressGenerating)
	raw, err := p.generateWithRetry(ctx, prompt)
	if err != nil {
		return nil, p.classify(ctx, err)
	}

	progress(ProgressRepairing)
	cards, repairErr := repair.Repair(raw)

	if repairErr != nil && p.config.StrictRetry {
		p.logger.Info("repair failed, regenerating with strict prompt",
			"repair_error", repairErr)

		cards, repairErr = p.strictRegenerate(ctx, input.Text, repairErr)
	}

	if repairErr != nil {
		return nil, p.classify(ctx, repairErr)
	}

	progress(ProgressValidating)
	if err := cards.Validate(); err != nil {
		// Repair guarantees validated output; reaching here is a bug.
		return nil, domain.NewJobError(domain.ErrorKindInternal, fmt.Sprintf("repaired set failed validation: %v", err))
	}

	return cards, nil
}

// strictRegenerate makes the single structured-only retry. The strict
// pass is best effort: if it cannot produce a better response the
// original repair failure is surfaced, not the strict pass's own error.
func (p *Pipeline) strictRegenerate(
	ctx context.Context,
	text string,
	original error,
) (domain.FlashcardSet, error) {
	strictPrompt, err := p.prompts.BuildStrict(text)
	if err != nil {
		return nil, original
	}

	raw, err := p.client.Generate(ctx, strictPrompt)
	if err != nil {
		p.logger.Warn("strict regeneration call failed", "error", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, original
	}

	cards, repairErr := repair.Repair(raw)
	if repairErr != nil {
		return nil, repairErr
	}

	return cards, nil
}

// generateWithRetry calls the model, retrying transport failures up to
// MaxRetries additional times with a fixed delay. Context cancellation
// aborts the loop immediately.
func (p *Pipeline) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	attempts := p.config.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		p.logger.Debug("calling model backend", "attempt", attempt, "max_attempts", attempts)

		raw, err := p.client.Generate(ctx, prompt)
		if err == nil {
			return raw, nil
		}

		lastErr = err
		p.logger.Warn("model call failed", "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(p.config.RetryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("%w: exhausted %d attempts: %v", ErrTransport, attempts, lastErr)
}

// classify maps an internal pipeline error to the single error kind
// visible to callers.
func (p *Pipeline) classify(ctx context.Context, err error) *domain.JobError {
	switch {
	case ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return domain.NewJobError(domain.ErrorKindTimeout, "pipeline exceeded its time budget")
	case errors.Is(err, repair.ErrUnrepairable):
		return domain.NewJobError(domain.ErrorKindUnparseable, err.Error())
	case errors.Is(err, ErrTransport) || errors.Is(err, ErrContentBlocked):
		return domain.NewJobError(domain.ErrorKindTransport, err.Error())
	case errors.Is(err, ErrEmptyPrompt):
		return domain.NewJobError(domain.ErrorKindInvalidInput, err.Error())
	default:
		return domain.NewJobError(domain.ErrorKindInternal, err.Error())
	}
}
