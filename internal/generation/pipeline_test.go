package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge-api/internal/domain"
)

// mockModelClient is a hand-written ModelClient test double.
type mockModelClient struct {
	mu         sync.Mutex
	prompts    []string
	GenerateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockModelClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.GenerateFn(ctx, prompt)
}

func (m *mockModelClient) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockModelClient) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testConfig() Config {
	return Config{MaxRetries: 2, RetryDelay: time.Millisecond, StrictRetry: false}
}

func newTestPipeline(t *testing.T, client ModelClient, cfg Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(client, NewPromptBuilder(0), cfg, testLogger())
	require.NoError(t, err)
	return p
}

func TestNewPipelineValidation(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{}

	_, err := NewPipeline(nil, NewPromptBuilder(0), testConfig(), testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPipeline(client, nil, testConfig(), testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPipeline(client, NewPromptBuilder(0), testConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPipelineRunSuccess(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			return `[{"question":"What is Go?","answer":"A language"}]`, nil
		},
	}
	p := newTestPipeline(t, client, testConfig())

	var steps []string
	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "go basics"}, func(step string) {
		steps = append(steps, step)
	})

	require.Nil(t, jobErr)
	require.Len(t, set, 1)
	assert.Equal(t, "What is Go?", set[0].Question)
	assert.Equal(t, 1, client.calls())
	assert.Equal(t, []string{ProgressGenerating, ProgressRepairing, ProgressValidating}, steps)
	assert.Contains(t, client.prompt(0), "go basics")
}

func TestPipelineRunTransportExhaustion(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			return "", fmt.Errorf("%w: connection refused", ErrTransport)
		},
	}
	cfg := testConfig()
	cfg.MaxRetries = 2
	p := newTestPipeline(t, client, cfg)

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	assert.Nil(t, set)
	require.NotNil(t, jobErr)
	assert.Equal(t, domain.ErrorKindTransport, jobErr.Kind)
	// Exactly the configured attempt count: 1 initial + 2 retries
	assert.Equal(t, 3, client.calls())
}

func TestPipelineRunTransientThenSuccess(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n < 3 {
				return "", fmt.Errorf("%w: 503", ErrTransport)
			}
			return `[{"question":"Q?","answer":"A"}]`, nil
		},
	}
	p := newTestPipeline(t, client, testConfig())

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	require.Nil(t, jobErr)
	assert.Len(t, set, 1)
	assert.Equal(t, 3, client.calls())
}

func TestPipelineRunUnparseable(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			return "I'm sorry, I can only chat about the weather.", nil
		},
	}
	p := newTestPipeline(t, client, testConfig())

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	assert.Nil(t, set)
	require.NotNil(t, jobErr)
	assert.Equal(t, domain.ErrorKindUnparseable, jobErr.Kind)
	assert.Equal(t, 1, client.calls())
}

func TestPipelineStrictRetryRecovers(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{}
	client.GenerateFn = func(ctx context.Context, prompt string) (string, error) {
		if client.calls() == 1 {
			return "free-form rambling with no cards at all", nil
		}
		return `[{"question":"Q?","answer":"A"}]`, nil
	}

	cfg := testConfig()
	cfg.StrictRetry = true
	p := newTestPipeline(t, client, cfg)

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	require.Nil(t, jobErr)
	assert.Len(t, set, 1)
	require.Equal(t, 2, client.calls())
	assert.Contains(t, client.prompt(1), "not valid JSON")
}

func TestPipelineStrictRetryStillUnparseable(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			return "still just prose", nil
		},
	}
	cfg := testConfig()
	cfg.StrictRetry = true
	p := newTestPipeline(t, client, cfg)

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	assert.Nil(t, set)
	require.NotNil(t, jobErr)
	assert.Equal(t, domain.ErrorKindUnparseable, jobErr.Kind)
	assert.Equal(t, 2, client.calls())
}

func TestPipelineStrictRetryTransportFailureKeepsOriginalError(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{}
	client.GenerateFn = func(ctx context.Context, prompt string) (string, error) {
		if client.calls() == 1 {
			return "free-form rambling", nil
		}
		return "", fmt.Errorf("%w: connection reset", ErrTransport)
	}

	cfg := testConfig()
	cfg.StrictRetry = true
	p := newTestPipeline(t, client, cfg)

	_, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	require.NotNil(t, jobErr)
	// The strict pass is best effort; its own transport failure must not
	// mask why repair was attempted in the first place.
	assert.Equal(t, domain.ErrorKindUnparseable, jobErr.Kind)
}

func TestPipelineRunTimeout(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
		},
	}
	p := newTestPipeline(t, client, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	set, jobErr := p.Run(ctx, domain.JobInput{Text: "topic"}, nil)

	assert.Nil(t, set)
	require.NotNil(t, jobErr)
	assert.Equal(t, domain.ErrorKindTimeout, jobErr.Kind)
	assert.Less(t, time.Since(start), 5*time.Second, "run must not hang past the deadline")
}

func TestPipelineRunRecoversPanic(t *testing.T) {
	t.Parallel()

	client := &mockModelClient{
		GenerateFn: func(ctx context.Context, prompt string) (string, error) {
			panic("boom")
		},
	}
	p := newTestPipeline(t, client, testConfig())

	set, jobErr := p.Run(context.Background(), domain.JobInput{Text: "topic"}, nil)

	assert.Nil(t, set)
	require.NotNil(t, jobErr)
	assert.Equal(t, domain.ErrorKindInternal, jobErr.Kind)
	assert.Contains(t, jobErr.Message, "boom")
}

func TestPromptBuilder(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(7)

	prompt, err := b.Build("memory management in Go")
	require.NoError(t, err)
	assert.Contains(t, prompt, "exactly 7 study flashcards")
	assert.Contains(t, prompt, "memory management in Go")

	strict, err := b.BuildStrict("memory management in Go")
	require.NoError(t, err)
	assert.Contains(t, strict, "NOTHING except a JSON array")

	_, err = b.Build("   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestPromptBuilderDefaultCount(t *testing.T) {
	t.Parallel()

	prompt, err := NewPromptBuilder(0).Build("topic")
	require.NoError(t, err)
	assert.True(t, strings.Contains(prompt, "exactly 5 study flashcards"))
}

func TestClassifyUnknownErrorIsInternal(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &mockModelClient{GenerateFn: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("weird")
	}}, testConfig())

	jobErr := p.classify(context.Background(), errors.New("weird"))
	assert.Equal(t, domain.ErrorKindInternal, jobErr.Kind)
}
