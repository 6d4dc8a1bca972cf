// Package config provides environment-backed configuration for the webhook service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the service configuration. Values come from the process
// environment (optionally seeded from a .env file by the CLI).
type Config struct {
	Port            int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
	DatabaseURL     string        `env:"DATABASE_URL" validate:"required"`
	WebhookSecret   string        `env:"WEBHOOK_SECRET" validate:"required"`
	RedisURL        string        `env:"REDIS_URL"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576" validate:"min=1024"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given key/value map instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required values are present and in range.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("config error: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults
// (JSON logs, info level floor).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
