package db

import (
	"time"

	"github.com/google/uuid"
)

// Session status constants. pending is the state a session is created in
// before the first webhook arrives; completed and failed are terminal.
const (
	SessionStatusPending   = "pending"
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// Log levels accepted by study_session_logs.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Session represents one run of the external research/evaluation pipeline.
type Session struct {
	ID           uuid.UUID      `json:"id"`
	StudyID      *uuid.UUID     `json:"study_id,omitempty"`
	SessionType  string         `json:"session_type"`
	Status       string         `json:"status"`
	CurrentPhase *string        `json:"current_phase,omitempty"`
	Progress     int            `json:"progress"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Summary      map[string]any `json:"summary,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsTerminal reports whether the session can no longer change status.
func (s *Session) IsTerminal() bool {
	return IsTerminalStatus(s.Status)
}

// IsTerminalStatus reports whether status is completed or failed.
func IsTerminalStatus(status string) bool {
	return status == SessionStatusCompleted || status == SessionStatusFailed
}

// ValidSessionStatus checks if a session status value is valid
func ValidSessionStatus(status string) bool {
	switch status {
	case SessionStatusPending, SessionStatusRunning, SessionStatusCompleted, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// ValidLogLevel checks if a log level value is valid
func ValidLogLevel(level string) bool {
	switch level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Study holds the study metadata the report writer needs.
type Study struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	ProblemStatement *string   `json:"problem_statement,omitempty"`
	Objectives       *string   `json:"objectives,omitempty"`
}

// SessionLog is one audit entry written for a webhook event.
type SessionLog struct {
	ID        int64          `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	Level     string         `json:"level"`
	Phase     *string        `json:"phase,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SessionLogInput is used when appending an audit entry
type SessionLogInput struct {
	SessionID uuid.UUID
	Level     string
	Phase     string
	Message   string
	Details   any
}

// DeadLetterInput records a webhook event whose writes could not be applied.
// SessionID is kept as raw text so malformed identifiers are preserved.
type DeadLetterInput struct {
	Event     string
	SessionID string
	Payload   any
	Error     string
}
