package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that Load fills in the expected defaults when
// no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"FLASHFORGE_SERVER_PORT":           "",
		"FLASHFORGE_SERVER_LOG_LEVEL":      "",
		"FLASHFORGE_LLM_PROVIDER":          "",
		"FLASHFORGE_LLM_ENDPOINT":          "",
		"FLASHFORGE_LLM_MODEL":             "",
		"FLASHFORGE_PIPELINE_TIMEOUT":      "",
		"FLASHFORGE_PIPELINE_WORKERS":      "",
		"FLASHFORGE_PIPELINE_QUEUE_SIZE":   "",
		"FLASHFORGE_PIPELINE_SYNC_TIMEOUT": "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Equal(t, "ollama", cfg.LLM.Provider, "Default provider should be ollama")
	assert.Empty(t, cfg.LLM.Endpoint, "Endpoint default belongs to the provider wiring")
	assert.Equal(t, 5, cfg.LLM.CardCount)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RetryDelay())
	assert.True(t, cfg.LLM.StrictRetry)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Pipeline.SyncTimeout)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 100, cfg.Pipeline.QueueSize)
}

// TestLoadFromEnvironment verifies that environment variables override the
// defaults.
func TestLoadFromEnvironment(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"FLASHFORGE_SERVER_PORT":      "9090",
		"FLASHFORGE_SERVER_LOG_LEVEL": "debug",
		"FLASHFORGE_LLM_PROVIDER":     "gemini",
		"FLASHFORGE_LLM_API_KEY":      "test-api-key",
		"FLASHFORGE_LLM_MODEL":        "gemini-2.0-flash",
		"FLASHFORGE_PIPELINE_TIMEOUT": "45s",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "test-api-key", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.Timeout)
}

// TestLoadRejectsInvalidValues verifies validation failures surface as
// errors instead of a partially valid config.
func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "unknown provider",
			envVars: map[string]string{
				"FLASHFORGE_LLM_PROVIDER": "bedrock",
			},
		},
		{
			name: "port out of range",
			envVars: map[string]string{
				"FLASHFORGE_SERVER_PORT": "70000",
			},
		},
		{
			name: "bad log level",
			envVars: map[string]string{
				"FLASHFORGE_SERVER_LOG_LEVEL": "loud",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

// TestLoadRequiresAPIKeyForRemoteProviders verifies gemini and openai
// cannot be selected without credentials.
func TestLoadRequiresAPIKeyForRemoteProviders(t *testing.T) {
	for _, provider := range []string{"gemini", "openai"} {
		t.Run(provider, func(t *testing.T) {
			cleanup := setupEnv(t, map[string]string{
				"FLASHFORGE_LLM_PROVIDER": provider,
				"FLASHFORGE_LLM_API_KEY":  "",
			})
			defer cleanup()

			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAPIKeyRequired))
		})
	}
}
