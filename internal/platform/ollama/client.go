// Package ollama implements the generation.ModelClient interface against
// an Ollama-style HTTP text-generation endpoint. This is the default
// backend: a single non-streaming POST to /api/generate carrying the
// rendered prompt, with the reply's free-form text in the "response"
// field.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flashforge/flashforge-api/internal/generation"
)

// DefaultTimeout bounds a single generation request when the config does
// not specify one.
const DefaultTimeout = 30 * time.Second

// Config holds the connection settings for the Ollama backend.
type Config struct {
	// Endpoint is the base URL of the service, e.g. http://localhost:11434.
	Endpoint string

	// Model is the model name passed with every request.
	Model string

	// Temperature is forwarded in the request options. Low values keep
	// the output closer to the requested JSON shape.
	Temperature float64

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// Client is a stateless ModelClient over the Ollama generate API.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	model       string
	temperature float64
	logger      *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "ollama_client"),
	}, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt and returns the raw response text. All
// failure modes (connection error, timeout, non-success status, malformed
// reply) wrap generation.ErrTransport; retries belong to the caller.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", generation.ErrEmptyPrompt
	}

	body, err := json.Marshal(generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generate request", "model", c.model, "prompt_length", len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransport, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log; the status is what matters.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("generate request rejected",
			"status", resp.StatusCode,
			"body", string(snippet))
		return "", fmt.Errorf("%w: unexpected status %d", generation.ErrTransport, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed response envelope: %v", generation.ErrTransport, err)
	}

	if out.Response == "" {
		return "", fmt.Errorf("%w: empty response text", generation.ErrTransport)
	}

	c.logger.Debug("generate request succeeded", "response_length", len(out.Response))
	return out.Response, nil
}

var _ generation.ModelClient = (*Client)(nil)
