package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Take(t *testing.T) {
	bucket := newTokenBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take()
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, remaining, resetTime := bucket.take()
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, resetTime.After(time.Now()))
}

func TestTokenBucket_Refill(t *testing.T) {
	bucket := newTokenBucket(2, 20.0)
	bucket.take()
	bucket.take()

	allowed, _, _ := bucket.take()
	require.False(t, allowed)

	time.Sleep(100 * time.Millisecond)
	allowed, _, _ = bucket.take()
	assert.True(t, allowed, "bucket should refill")
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/sessions/abc", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/sessions/abc", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)

	// another path has its own default bucket
	allowed, _ = limiter.Allow("127.0.0.1", "/sessions/def", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/webhooks/study", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("10.0.0.2", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/webhooks/study", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/studies/", Method: "GET", Limit: 3, Window: time.Hour, Burst: 3},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("127.0.0.1", fmt.Sprintf("/studies/%d/evaluations.xlsx", i), "GET")
		require.True(t, allowed)
		assert.Equal(t, 3, info.Limit)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/studies/99/evaluations.xlsx", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 1, limiter.Len())

	allowed, info := limiter.Allow("127.0.0.1", "/sessions/1", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_UnlimitedHealthAndMetrics(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(600),
	})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("127.0.0.1", "/metrics", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, limiter.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/webhooks/study", "POST"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_EvictIdle(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/sessions/x", "GET")
	}
	require.Equal(t, 5, limiter.Len())

	assert.Zero(t, limiter.evictIdle(time.Now().Add(-time.Minute)))
	assert.Equal(t, 5, limiter.evictIdle(time.Now().Add(time.Second)))
	assert.Zero(t, limiter.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: 10 * time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/sessions/x", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(600)

	rule := MatchEndpoint("/webhooks/study", "POST", configs)
	require.NotNil(t, rule)
	assert.Equal(t, 600, rule.Limit)
	assert.Equal(t, 60, rule.Burst)

	rule = MatchEndpoint("/study-webhook", "POST", configs)
	require.NotNil(t, rule)

	rule = MatchEndpoint("/studies/abc/evaluations.xlsx", "GET", configs)
	require.NotNil(t, rule)
	assert.Equal(t, "/studies/", rule.Path)

	assert.Nil(t, MatchEndpoint("/sessions/abc", "GET", configs))
	assert.Nil(t, MatchEndpoint("/webhooks/study", "GET", configs))

	for _, path := range []string{"/health", "/metrics"} {
		rule = MatchEndpoint(path, "GET", configs)
		require.NotNil(t, rule, path)
		assert.Zero(t, rule.Limit, path)
	}
	assert.Nil(t, MatchEndpoint("/metrics", "POST", configs))
}

func TestMatchEndpoint_LongestPrefixAfterExact(t *testing.T) {
	rules := []EndpointConfig{
		{Path: "/studies/", Method: "GET", Limit: 30},
		{Path: "/studies/export/", Method: "GET", Limit: 5},
		{Path: "/studies/export/all", Method: "GET", Limit: 1},
	}

	assert.Equal(t, 30, MatchEndpoint("/studies/abc", "GET", rules).Limit)
	assert.Equal(t, 5, MatchEndpoint("/studies/export/abc", "GET", rules).Limit)
	assert.Equal(t, 1, MatchEndpoint("/studies/export/all", "GET", rules).Limit)
	assert.Nil(t, MatchEndpoint("/studies", "GET", rules))
}

func TestLimiter_CustomRulesLimitHealthPath(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom(map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":  "50",
		"RATE_LIMIT_WEBHOOK_LIMIT":  "60",
		"RATE_LIMIT_DEFAULT_WINDOW": "30s",
		"RATE_LIMIT_WHITELIST":      "10.0.0.1, 10.0.0.2",
	})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.Equal(t, 60, cfg.EndpointConfigs[0].Limit)
	assert.Equal(t, 10, cfg.EndpointConfigs[0].Burst)

	cfg, err = LoadConfigFrom(map[string]string{"RATE_LIMIT_ENABLED": "false"})
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)

	_, err = LoadConfigFrom(map[string]string{"RATE_LIMIT_DEFAULT_LIMIT": "lots"})
	assert.Error(t, err)
}
