package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrAPIKeyRequired is returned when the selected provider needs an API
// key and none is configured.
var ErrAPIKeyRequired = errors.New("llm.api_key is required for this provider")

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.card_count", 5)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay_ms", 500)
	v.SetDefault("llm.strict_retry", true)
	v.SetDefault("llm.request_timeout", 30*time.Second)
	v.SetDefault("pipeline.timeout", 30*time.Second)
	v.SetDefault("pipeline.sync_timeout", 60*time.Second)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_size", 100)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Configure environment variables
	v.SetEnvPrefix("FLASHFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind environment variables so they resolve even without
	// a matching key in the config file
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "FLASHFORGE_SERVER_PORT"},
		{"server.log_level", "FLASHFORGE_SERVER_LOG_LEVEL"},
		{"llm.provider", "FLASHFORGE_LLM_PROVIDER"},
		{"llm.endpoint", "FLASHFORGE_LLM_ENDPOINT"},
		{"llm.api_key", "FLASHFORGE_LLM_API_KEY"},
		{"llm.model", "FLASHFORGE_LLM_MODEL"},
		{"llm.temperature", "FLASHFORGE_LLM_TEMPERATURE"},
		{"llm.card_count", "FLASHFORGE_LLM_CARD_COUNT"},
		{"llm.max_retries", "FLASHFORGE_LLM_MAX_RETRIES"},
		{"llm.retry_delay_ms", "FLASHFORGE_LLM_RETRY_DELAY_MS"},
		{"llm.strict_retry", "FLASHFORGE_LLM_STRICT_RETRY"},
		{"llm.request_timeout", "FLASHFORGE_LLM_REQUEST_TIMEOUT"},
		{"pipeline.timeout", "FLASHFORGE_PIPELINE_TIMEOUT"},
		{"pipeline.sync_timeout", "FLASHFORGE_PIPELINE_SYNC_TIMEOUT"},
		{"pipeline.workers", "FLASHFORGE_PIPELINE_WORKERS"},
		{"pipeline.queue_size", "FLASHFORGE_PIPELINE_QUEUE_SIZE"},
	}

	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// The ollama provider is the only one usable without credentials.
	if cfg.LLM.Provider != "ollama" && cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("%w: provider %s", ErrAPIKeyRequired, cfg.LLM.Provider)
	}

	return &cfg, nil
}
