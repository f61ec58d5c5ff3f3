package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains all model-backend related settings. Endpoint is only
// meaningful for the ollama provider (and as an optional base URL override
// for openai); APIKey is required by the gemini and openai providers.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" validate:"required,oneof=ollama gemini openai"`
	Endpoint       string        `mapstructure:"endpoint" validate:"omitempty,url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model" validate:"required"`
	Temperature    float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	CardCount      int           `mapstructure:"card_count" validate:"required,gt=0,lte=50"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelayMs   int           `mapstructure:"retry_delay_ms" validate:"gte=0"`
	StrictRetry    bool          `mapstructure:"strict_retry"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required,gt=0"`
}

// PipelineConfig contains job execution settings.
type PipelineConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
	SyncTimeout time.Duration `mapstructure:"sync_timeout" validate:"required,gt=0"`
	Workers     int           `mapstructure:"workers" validate:"required,gt=0,lte=64"`
	QueueSize   int           `mapstructure:"queue_size" validate:"required,gt=0"`
}

// RetryDelay returns the configured delay between generation attempts.
func (c LLMConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}
