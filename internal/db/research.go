package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertResearchFinding stores a single research finding and returns its ID.
// Source type and relevance score must already be normalized by the caller.
func (db *DB) InsertResearchFinding(ctx context.Context, in *ResearchFindingInput) (uuid.UUID, error) {
	if !ValidSourceType(in.SourceType) {
		return uuid.Nil, fmt.Errorf("invalid source type: %q", in.SourceType)
	}
	if in.RelevanceScore < 1 || in.RelevanceScore > 5 {
		return uuid.Nil, fmt.Errorf("relevance score out of range: %d", in.RelevanceScore)
	}

	var id uuid.UUID
	err := db.q.QueryRow(ctx,
		`INSERT INTO study_research (study_id, session_id, title, summary, source_url, source_type,
		                             relevance_score, key_findings, technology_mentioned,
		                             provider_mentioned, authors, publication_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		in.StudyID, in.SessionID, in.Title, nullIfEmpty(in.Summary), nullIfEmpty(in.SourceURL),
		in.SourceType, in.RelevanceScore, orEmpty(in.KeyFindings),
		nullIfEmpty(in.TechnologyMentioned), nullIfEmpty(in.ProviderMentioned),
		nullIfEmpty(in.Authors), nullIfEmpty(in.PublicationDate),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert research finding: %w", err)
	}
	return id, nil
}

// CountResearchFindings returns the number of findings stored for a study.
func (db *DB) CountResearchFindings(ctx context.Context, studyID uuid.UUID) (int, error) {
	var n int
	err := db.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM study_research WHERE study_id = $1`, studyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count research findings: %w", err)
	}
	return n, nil
}
