package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/scout-webhook/internal/realtime"
)

// SSE event names sent on session streams.
const (
	sseEventSession  = "session"
	sseEventProgress = "progress"
	sseEventComplete = "complete"
	sseEventError    = "error"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, &ErrStreamingUnsupported{}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteComment sends a comment line, used as a keepalive.
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteUpdate sends a session update under the event name for its status.
func (s *SSEWriter) WriteUpdate(u realtime.SessionUpdate) error {
	return s.WriteEvent(updateEventName(u.Status), u)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent(sseEventError, map[string]string{"error": message}) //nolint:errcheck
}

func updateEventName(status string) string {
	switch status {
	case "completed":
		return sseEventComplete
	case "failed":
		return sseEventError
	default:
		return sseEventProgress
	}
}
