package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flashforge/flashforge-api/internal/config"
	"github.com/flashforge/flashforge-api/internal/events"
	"github.com/flashforge/flashforge-api/internal/generation"
	"github.com/flashforge/flashforge-api/internal/job"
	"github.com/flashforge/flashforge-api/internal/platform/gemini"
	"github.com/flashforge/flashforge-api/internal/platform/ollama"
	"github.com/flashforge/flashforge-api/internal/platform/openai"
	"github.com/flashforge/flashforge-api/internal/task"
)

// application holds the wired dependencies of the running server.
type application struct {
	config   *config.Config
	logger   *slog.Logger
	runner   *task.Runner
	registry *job.Registry
}

// newApplication builds the model client, pipeline, task runner, and job
// registry from configuration and starts the background workers.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	client, err := newModelClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	prompts := generation.NewPromptBuilder(cfg.LLM.CardCount)

	pipeline, err := generation.NewPipeline(client, prompts, generation.Config{
		MaxRetries:  cfg.LLM.MaxRetries,
		RetryDelay:  cfg.LLM.RetryDelay(),
		StrictRetry: cfg.LLM.StrictRetry,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation pipeline: %w", err)
	}

	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Pipeline.Workers,
		QueueSize:   cfg.Pipeline.QueueSize,
	}, logger)

	registry, err := job.NewRegistry(pipeline, runner, cfg.Pipeline.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job registry: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLoggingHandler(logger))
	registry.SetEventEmitter(emitter)

	runner.Start()

	return &application{
		config:   cfg,
		logger:   logger,
		runner:   runner,
		registry: registry,
	}, nil
}

// defaultOllamaEndpoint is used when llm.endpoint is not configured.
const defaultOllamaEndpoint = "http://localhost:11434"

// newModelClient selects the generation backend from configuration.
func newModelClient(cfg config.LLMConfig, logger *slog.Logger) (generation.ModelClient, error) {
	switch cfg.Provider {
	case "ollama":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOllamaEndpoint
		}
		return ollama.New(ollama.Config{
			Endpoint:    endpoint,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.RequestTimeout,
		}, logger)

	case "gemini":
		return gemini.New(context.Background(), gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger)

	case "openai":
		return openai.New(openai.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.Endpoint,
			Temperature: cfg.Temperature,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// cleanup stops the background workers. Called after the HTTP server has
// drained so no new jobs arrive while the runner shuts down.
func (app *application) cleanup() {
	app.runner.Stop()
}
