// Package openai implements the generation.ModelClient interface using
// the OpenAI chat completion API, or any OpenAI-compatible endpoint via a
// custom base URL.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/flashforge/flashforge-api/internal/generation"
)

// Config holds the settings for the OpenAI backend.
type Config struct {
	// APIKey authenticates against the API.
	APIKey string

	// Model is the chat model name, e.g. gpt-4o-mini.
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	// Empty means the official endpoint.
	BaseURL string

	// Temperature is forwarded with every request.
	Temperature float64
}

// Client is a stateless ModelClient over the chat completion API.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", generation.ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.With("component", "openai_client"),
	}, nil
}

// Generate sends the prompt as a single user message and returns the
// first choice's content. All failure modes wrap generation.ErrTransport.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", generation.ErrEmptyPrompt
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrTransport, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", generation.ErrTransport)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", generation.ErrTransport)
	}

	c.logger.Debug("generate request succeeded", "response_length", len(content))
	return content, nil
}

var _ generation.ModelClient = (*Client)(nil)
