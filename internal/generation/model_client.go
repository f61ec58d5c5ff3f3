package generation

import "context"

// ModelClient defines the interface for the remote text-generation
// service. This interface serves as a boundary between the application
// core and external LLM backends; implementations live under
// internal/platform.
//
// Generate sends a rendered prompt and returns the raw response text.
// The response is free-form text, never assumed to be valid structured
// data. Transport failures (connection errors, timeouts, non-success
// status) are returned wrapping ErrTransport and are never retried by
// the implementation itself; retry policy is owned by the Pipeline.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
