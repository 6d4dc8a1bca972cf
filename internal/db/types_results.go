package db

import (
	"time"

	"github.com/google/uuid"
)

// Research finding source types
const (
	SourceTypePaper   = "paper"
	SourceTypeReport  = "report"
	SourceTypeArticle = "article"
	SourceTypePatent  = "patent"
	SourceTypeWebsite = "website"
	SourceTypeOther   = "other"
)

// Longlist sources
const (
	LonglistSourceSession   = "ai_session"
	LonglistSourceExtracted = "ai_extracted"
	LonglistSourceManual    = "manual"
)

// ResearchFindingInput is used when saving a finding from the research phase
type ResearchFindingInput struct {
	StudyID             uuid.UUID
	SessionID           *uuid.UUID
	Title               string
	Summary             string
	SourceURL           string
	SourceType          string
	RelevanceScore      int
	KeyFindings         []string
	TechnologyMentioned string
	ProviderMentioned   string
	Authors             string
	PublicationDate     string
}

// SolutionInput is used when saving an identified solution concept
type SolutionInput struct {
	StudyID            uuid.UUID
	SessionID          *uuid.UUID
	Name               string
	Category           string
	Description        string
	Advantages         []string
	Disadvantages      []string
	ApplicableContexts []string
	EstimatedTRLRange  string
	KeyProviders       []string
	CostRange          string
	ImplementationTime string
	Priority           *int
}

// LonglistInput is used when saving a technology candidate
type LonglistInput struct {
	StudyID              uuid.UUID
	SessionID            *uuid.UUID
	TechnologyName       string
	Provider             string
	Country              string
	TRL                  *int
	Description          string
	Applications         []string
	InclusionReason      string
	Source               string
	ConfidenceScore      *float64
	ExistingTechnologyID *uuid.UUID
}

// ShortlistEntry is a technology selected for formal evaluation
type ShortlistEntry struct {
	ID             uuid.UUID  `json:"id"`
	StudyID        uuid.UUID  `json:"study_id"`
	LonglistID     *uuid.UUID `json:"longlist_id,omitempty"`
	TechnologyName string     `json:"technology_name"`
	Provider       *string    `json:"provider,omitempty"`
}

// EvaluationInput is upserted on (study_id, shortlist_id)
type EvaluationInput struct {
	StudyID          uuid.UUID
	ShortlistID      uuid.UUID
	SessionID        *uuid.UUID
	TRLScore         *float64
	CostScore        *float64
	ScalabilityScore *float64
	ContextFitScore  *float64
	InnovationScore  *float64
	OverallScore     *float64
	Strengths        []string
	Weaknesses       []string
	Opportunities    []string
	Threats          []string
	Recommendation   string
	ScoresRaw        any
	SWOTRaw          any
}

// Evaluation is a stored evaluation joined with its shortlisted technology
type Evaluation struct {
	ID               uuid.UUID `json:"id"`
	StudyID          uuid.UUID `json:"study_id"`
	ShortlistID      uuid.UUID `json:"shortlist_id"`
	TechnologyName   string    `json:"technology_name"`
	Provider         *string   `json:"provider,omitempty"`
	TRLScore         *float64  `json:"trl_score,omitempty"`
	CostScore        *float64  `json:"cost_score,omitempty"`
	ScalabilityScore *float64  `json:"scalability_score,omitempty"`
	ContextFitScore  *float64  `json:"context_fit_score,omitempty"`
	InnovationScore  *float64  `json:"innovation_score,omitempty"`
	OverallScore     *float64  `json:"overall_score,omitempty"`
	Strengths        []string  `json:"strengths"`
	Weaknesses       []string  `json:"weaknesses"`
	Opportunities    []string  `json:"opportunities"`
	Threats          []string  `json:"threats"`
	Recommendation   *string   `json:"recommendation,omitempty"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
}

// ReportInput is used when saving a generated evaluation report
type ReportInput struct {
	StudyID              uuid.UUID
	SessionID            *uuid.UUID
	Title                string
	ExecutiveSummary     string
	ProblemStatement     string
	Objectives           string
	TechnologyComparison string
	Recommendations      string
	Conclusions          string
	RawSummary           any
}

// ValidSourceType checks if a source type value is valid
func ValidSourceType(sourceType string) bool {
	switch sourceType {
	case SourceTypePaper, SourceTypeReport, SourceTypeArticle, SourceTypePatent,
		SourceTypeWebsite, SourceTypeOther:
		return true
	default:
		return false
	}
}

// ValidLonglistSource checks if a longlist source value is valid
func ValidLonglistSource(source string) bool {
	switch source {
	case LonglistSourceSession, LonglistSourceExtracted, LonglistSourceManual:
		return true
	default:
		return false
	}
}
