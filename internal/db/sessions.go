package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Study Session Methods
// -----------------------------------------------------------------------------

// Status updates below only touch sessions that are not yet terminal, so a
// completed or failed session never moves back to running.
const nonTerminal = `status NOT IN ('completed', 'failed')`

// GetSession retrieves a study session by ID
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	var summary []byte
	err := db.q.QueryRow(ctx,
		`SELECT id, study_id, session_type, status, current_phase, progress, error_message,
		        summary, created_at, started_at, completed_at, updated_at
		 FROM study_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.StudyID, &s.SessionType, &s.Status, &s.CurrentPhase, &s.Progress,
		&s.ErrorMessage, &summary, &s.CreatedAt, &s.StartedAt, &s.CompletedAt, &s.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &s.Summary); err != nil {
			return nil, fmt.Errorf("failed to decode session summary: %w", err)
		}
	}
	return &s, nil
}

// CreateSession inserts a pending session for a study. The pipeline caller
// normally does this before any webhook arrives.
func (db *DB) CreateSession(ctx context.Context, studyID uuid.UUID, sessionType string) (uuid.UUID, error) {
	if sessionType == "" {
		sessionType = "research"
	}
	var id uuid.UUID
	err := db.q.QueryRow(ctx,
		`INSERT INTO study_sessions (study_id, session_type, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		studyID, sessionType, SessionStatusPending,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// StartSession marks a session running and stamps started_at on first start.
// It reports whether a row was changed.
func (db *DB) StartSession(ctx context.Context, id uuid.UUID, phase string) (bool, error) {
	tag, err := db.q.Exec(ctx,
		`UPDATE study_sessions
		 SET status = $2, current_phase = COALESCE($3, current_phase),
		     started_at = COALESCE(started_at, NOW()), updated_at = NOW()
		 WHERE id = $1 AND `+nonTerminal,
		id, SessionStatusRunning, nullIfEmpty(phase),
	)
	if err != nil {
		return false, fmt.Errorf("failed to start session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateSessionProgress records progress and phase, moving the session to running.
func (db *DB) UpdateSessionProgress(ctx context.Context, id uuid.UUID, progress int, phase string) (bool, error) {
	tag, err := db.q.Exec(ctx,
		`UPDATE study_sessions
		 SET status = $2, progress = $3, current_phase = COALESCE($4, current_phase),
		     started_at = COALESCE(started_at, NOW()), updated_at = NOW()
		 WHERE id = $1 AND `+nonTerminal,
		id, SessionStatusRunning, clampProgress(progress), nullIfEmpty(phase),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteSession marks a session completed with progress 100 and stores its summary.
func (db *DB) CompleteSession(ctx context.Context, id uuid.UUID, phase string, summary any) (bool, error) {
	summaryJSON, err := toJSON(summary)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session summary: %w", err)
	}

	tag, err := db.q.Exec(ctx,
		`UPDATE study_sessions
		 SET status = $2, progress = 100, current_phase = COALESCE($3, current_phase),
		     summary = COALESCE($4, summary), completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND `+nonTerminal,
		id, SessionStatusCompleted, nullIfEmpty(phase), summaryJSON,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FailSession marks a session failed with the given error message.
func (db *DB) FailSession(ctx context.Context, id uuid.UUID, message string) (bool, error) {
	tag, err := db.q.Exec(ctx,
		`UPDATE study_sessions
		 SET status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND `+nonTerminal,
		id, SessionStatusFailed, nullIfEmpty(message),
	)
	if err != nil {
		return false, fmt.Errorf("failed to fail session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSession removes a session; audit logs cascade. Used by tests and tooling.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := db.q.Exec(ctx, `DELETE FROM study_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// toJSON marshals v for a JSONB column, passing nil through as SQL NULL.
func toJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// orEmpty keeps NOT NULL array columns from receiving NULL.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
