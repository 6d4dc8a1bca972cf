package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertSolution stores an identified solution concept and returns its ID.
func (db *DB) InsertSolution(ctx context.Context, in *SolutionInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.q.QueryRow(ctx,
		`INSERT INTO study_solutions (study_id, session_id, name, category, description, advantages,
		                              disadvantages, applicable_contexts, estimated_trl_range,
		                              key_providers, cost_range, implementation_time, priority)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		in.StudyID, in.SessionID, in.Name, nullIfEmpty(in.Category), nullIfEmpty(in.Description),
		orEmpty(in.Advantages), orEmpty(in.Disadvantages), orEmpty(in.ApplicableContexts),
		nullIfEmpty(in.EstimatedTRLRange), orEmpty(in.KeyProviders), nullIfEmpty(in.CostRange),
		nullIfEmpty(in.ImplementationTime), in.Priority,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert solution %s: %w", in.Name, err)
	}
	return id, nil
}
