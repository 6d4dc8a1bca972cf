package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker publishes session updates over Redis pub/sub so every service
// instance can serve streams for any session.
type RedisBroker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBroker connects to Redis at url and verifies the connection.
func NewRedisBroker(ctx context.Context, url string, logger *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisBroker{client: client, logger: logger}, nil
}

// Publish sends the update as JSON to the session's channel.
func (b *RedisBroker) Publish(ctx context.Context, update SessionUpdate) error {
	if update.At.IsZero() {
		update.At = time.Now().UTC()
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal session update: %w", err)
	}
	if err := b.client.Publish(ctx, Channel(update.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish session update: %w", err)
	}
	return nil
}

// Subscribe listens on the session's channel until ctx ends.
func (b *RedisBroker) Subscribe(ctx context.Context, sessionID string) (<-chan SessionUpdate, error) {
	ps := b.client.Subscribe(ctx, Channel(sessionID))

	// Wait for subscription confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", Channel(sessionID), err)
	}

	out := make(chan SessionUpdate, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close() //nolint:errcheck

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update SessionUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					b.logger.Warn("dropping malformed session update",
						zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the Redis connection pool.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
