package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultLogLimit caps ListSessionLogs when no limit is given
const DefaultLogLimit = 100

// AppendSessionLog writes an audit entry for a webhook event.
func (db *DB) AppendSessionLog(ctx context.Context, in *SessionLogInput) error {
	level := in.Level
	if !ValidLogLevel(level) {
		level = LogLevelInfo
	}
	details, err := toJSON(in.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal log details: %w", err)
	}

	_, err = db.q.Exec(ctx,
		`INSERT INTO study_session_logs (session_id, level, phase, message, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		in.SessionID, level, nullIfEmpty(in.Phase), in.Message, details,
	)
	if err != nil {
		return fmt.Errorf("failed to append session log: %w", err)
	}
	return nil
}

// ListSessionLogs returns the most recent audit entries for a session, newest first.
func (db *DB) ListSessionLogs(ctx context.Context, sessionID uuid.UUID, limit int) ([]SessionLog, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	rows, err := db.q.Query(ctx,
		`SELECT id, session_id, level, phase, message, details, created_at
		 FROM study_session_logs
		 WHERE session_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list session logs: %w", err)
	}
	defer rows.Close()

	var logs []SessionLog
	for rows.Next() {
		var l SessionLog
		var details []byte
		if err := rows.Scan(&l.ID, &l.SessionID, &l.Level, &l.Phase, &l.Message, &details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &l.Details); err != nil {
				// Non-object payloads are kept under a single key.
				var v any
				if json.Unmarshal(details, &v) == nil {
					l.Details = map[string]any{"value": v}
				}
			}
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list session logs: %w", err)
	}
	return logs, nil
}

// RecordDeadLetter stores an event whose writes were rolled back.
func (db *DB) RecordDeadLetter(ctx context.Context, in *DeadLetterInput) error {
	payload, err := toJSON(in.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter payload: %w", err)
	}

	_, err = db.q.Exec(ctx,
		`INSERT INTO webhook_dead_letters (event, session_id, payload, error)
		 VALUES ($1, $2, $3, $4)`,
		in.Event, nullIfEmpty(in.SessionID), payload, in.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record dead letter: %w", err)
	}
	return nil
}
