// Package realtime fans session status changes out to stream subscribers.
package realtime

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when subscribing to a broker that has been closed.
var ErrClosed = errors.New("realtime: broker closed")

// channelPrefix namespaces per-session channels.
const channelPrefix = "study_session:"

// subscriberBuffer is the per-subscriber channel capacity. Updates beyond it
// are dropped for that subscriber rather than blocking the publisher.
const subscriberBuffer = 16

// SessionUpdate describes one change to a study session.
type SessionUpdate struct {
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	Status    string    `json:"status"`
	Phase     string    `json:"phase,omitempty"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}

// Terminal reports whether the update carries a completed or failed status.
func (u SessionUpdate) Terminal() bool {
	return u.Status == "completed" || u.Status == "failed"
}

// Publisher sends session updates.
type Publisher interface {
	Publish(ctx context.Context, update SessionUpdate) error
}

// Subscriber receives session updates for one session. The returned channel
// is closed when ctx ends or the broker closes.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan SessionUpdate, error)
}

// Broker is both ends of the session update channel.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// Channel returns the pub/sub channel name for a session.
func Channel(sessionID string) string {
	return channelPrefix + sessionID
}
