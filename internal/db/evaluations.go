package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UpsertEvaluation writes an evaluation keyed on (study_id, shortlist_id).
// A later evaluation for the same pair replaces the earlier one.
func (db *DB) UpsertEvaluation(ctx context.Context, in *EvaluationInput) (uuid.UUID, error) {
	scoresRaw, err := toJSON(in.ScoresRaw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal raw scores: %w", err)
	}
	swotRaw, err := toJSON(in.SWOTRaw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal raw swot: %w", err)
	}

	var id uuid.UUID
	err = db.q.QueryRow(ctx,
		`INSERT INTO study_evaluations (study_id, shortlist_id, session_id, trl_score, cost_score,
		                                scalability_score, context_fit_score, innovation_score,
		                                overall_score, strengths, weaknesses, opportunities, threats,
		                                recommendation, scores_raw, swot_raw)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (study_id, shortlist_id) DO UPDATE SET
		     session_id = EXCLUDED.session_id,
		     trl_score = EXCLUDED.trl_score,
		     cost_score = EXCLUDED.cost_score,
		     scalability_score = EXCLUDED.scalability_score,
		     context_fit_score = EXCLUDED.context_fit_score,
		     innovation_score = EXCLUDED.innovation_score,
		     overall_score = EXCLUDED.overall_score,
		     strengths = EXCLUDED.strengths,
		     weaknesses = EXCLUDED.weaknesses,
		     opportunities = EXCLUDED.opportunities,
		     threats = EXCLUDED.threats,
		     recommendation = EXCLUDED.recommendation,
		     scores_raw = EXCLUDED.scores_raw,
		     swot_raw = EXCLUDED.swot_raw,
		     evaluated_at = NOW()
		 RETURNING id`,
		in.StudyID, in.ShortlistID, in.SessionID, in.TRLScore, in.CostScore, in.ScalabilityScore,
		in.ContextFitScore, in.InnovationScore, in.OverallScore, orEmpty(in.Strengths),
		orEmpty(in.Weaknesses), orEmpty(in.Opportunities), orEmpty(in.Threats),
		nullIfEmpty(in.Recommendation), scoresRaw, swotRaw,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert evaluation: %w", err)
	}
	return id, nil
}

// ListEvaluations returns a study's evaluations joined with the shortlisted
// technology, best overall score first.
func (db *DB) ListEvaluations(ctx context.Context, studyID uuid.UUID) ([]Evaluation, error) {
	rows, err := db.q.Query(ctx,
		`SELECT e.id, e.study_id, e.shortlist_id, s.technology_name, s.provider,
		        e.trl_score::float8, e.cost_score::float8, e.scalability_score::float8,
		        e.context_fit_score::float8, e.innovation_score::float8, e.overall_score::float8,
		        e.strengths, e.weaknesses, e.opportunities, e.threats, e.recommendation,
		        e.evaluated_at
		 FROM study_evaluations e
		 JOIN study_shortlist s ON s.id = e.shortlist_id
		 WHERE e.study_id = $1
		 ORDER BY e.overall_score DESC NULLS LAST, s.technology_name ASC`,
		studyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(&e.ID, &e.StudyID, &e.ShortlistID, &e.TechnologyName, &e.Provider,
			&e.TRLScore, &e.CostScore, &e.ScalabilityScore, &e.ContextFitScore,
			&e.InnovationScore, &e.OverallScore, &e.Strengths, &e.Weaknesses,
			&e.Opportunities, &e.Threats, &e.Recommendation, &e.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evals = append(evals, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}
