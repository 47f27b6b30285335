package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	envVars := []string{
		"APP_ENV", "PORT", "AI_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"CHAT_MODEL", "AI_CHAT_TIMEOUT", "MAX_INPUT_CHARS",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "CORS_ALLOW_ORIGINS",
		"RATE_LIMIT_PER_MIN", "REQUEST_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"AI_RETRY_MAX_RETRIES", "AI_BACKOFF_MAX_ELAPSED_TIME",
		"AI_BACKOFF_INITIAL_INTERVAL", "AI_BACKOFF_MAX_INTERVAL", "AI_BACKOFF_MULTIPLIER",
		"AI_BREAKER_MAX_FAILURES", "AI_BREAKER_COOLDOWN",
	}
	for _, envVar := range envVars {
		require.NoError(t, os.Unsetenv(envVar))
	}
}

func TestConfig_Load_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", cfg.ChatModel)
	assert.Equal(t, 120*time.Second, cfg.AIChatTimeout)
	assert.Equal(t, 50000, cfg.MaxInputChars)
	assert.Equal(t, "resume-matcher", cfg.OTELServiceName)
	assert.Equal(t, "*", cfg.CORSAllowOrigins)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, 2, cfg.AIRetryMaxRetries)
	assert.Equal(t, 2.0, cfg.AIBackoffMultiplier)
	assert.Equal(t, 5, cfg.AIBreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.AIBreakerCooldown)
}

func TestConfig_Load_CustomValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://llm.local/v1")
	t.Setenv("CHAT_MODEL", "gpt-4o")
	t.Setenv("AI_CHAT_TIMEOUT", "30s")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("AI_RETRY_MAX_RETRIES", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "http://llm.local/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	assert.Equal(t, 30*time.Second, cfg.AIChatTimeout)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
	assert.Equal(t, 4, cfg.GetRetryConfig().MaxRetries)
}

func TestConfig_Load_InvalidValue(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.Load")
}

func TestConfig_EnvHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env              string
		dev, prod, isTst bool
	}{
		{"dev", true, false, false},
		{"DEV", true, false, false},
		{"prod", false, true, false},
		{"test", false, false, true},
		{"staging", false, false, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			c := Config{AppEnv: tt.env}
			assert.Equal(t, tt.dev, c.IsDev())
			assert.Equal(t, tt.prod, c.IsProd())
			assert.Equal(t, tt.isTst, c.IsTest())
		})
	}
}

func TestConfig_UseStubProvider(t *testing.T) {
	t.Parallel()

	assert.True(t, Config{AppEnv: "dev", AIProvider: "openai"}.UseStubProvider())
	assert.False(t, Config{AppEnv: "dev", AIProvider: "openai", OpenAIAPIKey: "k"}.UseStubProvider())
	assert.True(t, Config{AppEnv: "prod", AIProvider: "STUB", OpenAIAPIKey: "k"}.UseStubProvider())
	assert.False(t, Config{AppEnv: "prod", AIProvider: "openai"}.UseStubProvider())
}

func TestConfig_GetRetryConfig(t *testing.T) {
	t.Parallel()

	c := Config{
		AppEnv:                   "prod",
		AIRetryMaxRetries:        -1,
		AIBackoffInitialInterval: time.Second,
		AIBackoffMaxInterval:     5 * time.Second,
		AIBackoffMaxElapsedTime:  time.Minute,
		AIBackoffMultiplier:      1.5,
	}
	rc := c.GetRetryConfig()
	assert.Equal(t, 0, rc.MaxRetries)
	assert.Equal(t, time.Second, rc.InitialInterval)
	assert.Equal(t, 5*time.Second, rc.MaxInterval)
	assert.Equal(t, time.Minute, rc.MaxElapsedTime)
	assert.Equal(t, 1.5, rc.Multiplier)

	c.AppEnv = "test"
	rc = c.GetRetryConfig()
	assert.Equal(t, 10*time.Millisecond, rc.InitialInterval)
	assert.Equal(t, 2*time.Second, rc.MaxElapsedTime)
}
