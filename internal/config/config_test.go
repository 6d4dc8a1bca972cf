package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":   "postgres://localhost:5432/scout",
		"WEBHOOK_SECRET": "s3cret",
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFrom_Overrides(t *testing.T) {
	environ := baseEnv()
	environ["PORT"] = "9090"
	environ["LOG_LEVEL"] = " DEBUG "
	environ["APP_ENV"] = "Production"
	environ["REDIS_URL"] = "redis://localhost:6379/0"
	environ["SHUTDOWN_TIMEOUT"] = "5s"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadFrom_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		drop    string
		wantErr string
	}{
		{name: "database url", drop: "DATABASE_URL", wantErr: "DatabaseURL"},
		{name: "webhook secret", drop: "WEBHOOK_SECRET", wantErr: "WebhookSecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			delete(environ, tt.drop)

			cfg, err := LoadFrom(environ)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port out of range", key: "PORT", value: "70000"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "tiny body limit", key: "MAX_BODY_BYTES", value: "10"},
		{name: "non-numeric port", key: "PORT", value: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			environ[tt.key] = tt.value

			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}
