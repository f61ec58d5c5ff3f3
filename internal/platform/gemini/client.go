// Package gemini implements the generation.ModelClient interface using
// Google's Gemini API as the remote text-generation service.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/flashforge/flashforge-api/internal/generation"
)

// Config holds the settings for the Gemini backend.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the Gemini model name, e.g. gemini-2.0-flash.
	Model string

	// Temperature is forwarded with every request.
	Temperature float64
}

// Client is a stateless ModelClient over the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// New creates a Client from the given configuration.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Client{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "gemini_client"),
	}, nil
}

// Generate sends the prompt and returns the raw candidate text. API
// errors and empty responses wrap generation.ErrTransport; content
// blocked by safety filters wraps generation.ErrContentBlocked.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", generation.ErrEmptyPrompt
	}

	temperature := float32(c.temperature)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransport, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrTransport)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty candidate text", generation.ErrTransport)
	}

	c.logger.Debug("generate request succeeded", "response_length", len(text))
	return text, nil
}

var _ generation.ModelClient = (*Client)(nil)
