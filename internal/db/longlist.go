package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InsertLonglistTechnology stores a technology candidate and returns its ID.
func (db *DB) InsertLonglistTechnology(ctx context.Context, in *LonglistInput) (uuid.UUID, error) {
	source := in.Source
	if source == "" {
		source = LonglistSourceSession
	}
	if !ValidLonglistSource(source) {
		return uuid.Nil, fmt.Errorf("invalid longlist source: %q", source)
	}

	var id uuid.UUID
	err := db.q.QueryRow(ctx,
		`INSERT INTO study_longlist (study_id, session_id, technology_name, provider, country, trl,
		                             description, applications, inclusion_reason, source,
		                             confidence_score, existing_technology_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		in.StudyID, in.SessionID, in.TechnologyName, nullIfEmpty(in.Provider),
		nullIfEmpty(in.Country), in.TRL, nullIfEmpty(in.Description), orEmpty(in.Applications),
		nullIfEmpty(in.InclusionReason), source, in.ConfidenceScore, in.ExistingTechnologyID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert longlist technology %s: %w", in.TechnologyName, err)
	}
	return id, nil
}

// TechnologyExists reports whether a catalogued technology with this ID exists.
func (db *DB) TechnologyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM technologies WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check technology: %w", err)
	}
	return exists, nil
}

// FindTechnologyByName looks up a catalogued technology by case-insensitive
// name (and provider when given). Returns nil when nothing matches.
func (db *DB) FindTechnologyByName(ctx context.Context, name, provider string) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var id uuid.UUID
	err := db.q.QueryRow(ctx,
		`SELECT id FROM technologies
		 WHERE LOWER(name) = LOWER($1)
		   AND ($2::text IS NULL OR LOWER(COALESCE(provider, '')) = LOWER($2))
		 ORDER BY created_at ASC LIMIT 1`,
		name, nullIfEmpty(strings.TrimSpace(provider)),
	).Scan(&id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find technology: %w", err)
	}
	return &id, nil
}

// ListShortlist returns every shortlisted technology for a study.
func (db *DB) ListShortlist(ctx context.Context, studyID uuid.UUID) ([]ShortlistEntry, error) {
	rows, err := db.q.Query(ctx,
		`SELECT id, study_id, longlist_id, technology_name, provider
		 FROM study_shortlist
		 WHERE study_id = $1
		 ORDER BY priority ASC NULLS LAST, created_at ASC`,
		studyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	defer rows.Close()

	var entries []ShortlistEntry
	for rows.Next() {
		var e ShortlistEntry
		if err := rows.Scan(&e.ID, &e.StudyID, &e.LonglistID, &e.TechnologyName, &e.Provider); err != nil {
			return nil, fmt.Errorf("failed to scan shortlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list shortlist: %w", err)
	}
	return entries, nil
}
