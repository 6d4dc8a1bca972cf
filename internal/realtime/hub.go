package realtime

import (
	"context"
	"sync"
	"time"
)

// Hub is an in-process Broker. It serves single-instance deployments where
// no Redis URL is configured.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan SessionUpdate]struct{}
	done   chan struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan SessionUpdate]struct{}),
		done: make(chan struct{}),
	}
}

// Publish delivers the update to every current subscriber of its session.
// Slow subscribers miss updates instead of blocking the caller.
func (h *Hub) Publish(_ context.Context, update SessionUpdate) error {
	if update.At.IsZero() {
		update.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for ch := range h.subs[update.SessionID] {
		select {
		case ch <- update:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for sessionID.
func (h *Hub) Subscribe(ctx context.Context, sessionID string) (<-chan SessionUpdate, error) {
	ch := make(chan SessionUpdate, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan SessionUpdate]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.remove(sessionID, ch)
		case <-h.done:
		}
	}()

	return ch, nil
}

// Subscribers returns the number of live subscribers for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

func (h *Hub) remove(sessionID string, ch chan SessionUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[sessionID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.subs, sessionID)
	}
}

// Close closes every subscriber channel. Further calls are no-ops.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	for id, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, id)
	}
	return nil
}
