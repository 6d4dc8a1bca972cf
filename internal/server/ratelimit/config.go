package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window, 0 for unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// envConfig mirrors the RATE_LIMIT_* environment variables.
type envConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	DefaultLimit    int           `env:"RATE_LIMIT_DEFAULT_LIMIT" envDefault:"1000"`
	DefaultWindow   time.Duration `env:"RATE_LIMIT_DEFAULT_WINDOW" envDefault:"1m"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	WebhookLimit    int           `env:"RATE_LIMIT_WEBHOOK_LIMIT" envDefault:"600"`
	Whitelist       string        `env:"RATE_LIMIT_WHITELIST"`
	Blacklist       string        `env:"RATE_LIMIT_BLACKLIST"`
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() (*Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit config: %w", err)
	}
	return ec.config(), nil
}

// LoadConfigFrom is LoadConfig over an explicit variable set.
func LoadConfigFrom(vars map[string]string) (*Config, error) {
	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit config: %w", err)
	}
	return ec.config(), nil
}

func (ec envConfig) config() *Config {
	if !ec.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    ec.DefaultLimit,
		DefaultWindow:   ec.DefaultWindow,
		CleanupInterval: ec.CleanupInterval,
		Whitelist:       parseIPList(ec.Whitelist),
		Blacklist:       parseIPList(ec.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(ec.WebhookLimit),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. webhookLimit
// is per minute per sender address.
func DefaultEndpointConfigs(webhookLimit int) []EndpointConfig {
	burst := webhookLimit / 10
	if burst < 10 {
		burst = 10
	}
	return []EndpointConfig{
		// Pipeline callbacks arrive in bursts at phase boundaries.
		{Path: "/webhooks/study", Method: "POST", Limit: webhookLimit, Window: time.Minute, Burst: burst},
		{Path: "/study-webhook", Method: "POST", Limit: webhookLimit, Window: time.Minute, Burst: burst},

		// Long-lived or heavy reads.
		{Path: "/studies/", Method: "GET", Limit: 30, Window: time.Minute, Burst: 5},

		// Health checks and scrapes; a zero limit is unlimited.
		{Path: "/health", Method: "GET"},
		{Path: "/metrics", Method: "GET"},

		// Other reads and streams use the default limit.
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
