package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetStudy retrieves the study metadata used when writing reports
func (db *DB) GetStudy(ctx context.Context, id uuid.UUID) (*Study, error) {
	var s Study
	err := db.q.QueryRow(ctx,
		`SELECT id, name, problem_statement, objectives FROM studies WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &s.ProblemStatement, &s.Objectives)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get study: %w", err)
	}
	return &s, nil
}

// InsertReport stores a generated evaluation report and returns its ID.
func (db *DB) InsertReport(ctx context.Context, in *ReportInput) (uuid.UUID, error) {
	raw, err := toJSON(in.RawSummary)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal report summary: %w", err)
	}

	var id uuid.UUID
	err = db.q.QueryRow(ctx,
		`INSERT INTO study_reports (study_id, session_id, title, executive_summary, problem_statement,
		                            objectives, technology_comparison, recommendations, conclusions,
		                            raw_summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		in.StudyID, in.SessionID, in.Title, nullIfEmpty(in.ExecutiveSummary),
		nullIfEmpty(in.ProblemStatement), nullIfEmpty(in.Objectives),
		nullIfEmpty(in.TechnologyComparison), nullIfEmpty(in.Recommendations),
		nullIfEmpty(in.Conclusions), raw,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert report: %w", err)
	}
	return id, nil
}
