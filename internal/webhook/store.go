package webhook

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
)

// Store is the persistence surface the processor writes through.
// InTx runs fn with a Store bound to a single transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	GetSession(ctx context.Context, id uuid.UUID) (*db.Session, error)
	StartSession(ctx context.Context, id uuid.UUID, phase string) (bool, error)
	UpdateSessionProgress(ctx context.Context, id uuid.UUID, progress int, phase string) (bool, error)
	CompleteSession(ctx context.Context, id uuid.UUID, phase string, summary any) (bool, error)
	FailSession(ctx context.Context, id uuid.UUID, message string) (bool, error)

	InsertResearchFinding(ctx context.Context, in *db.ResearchFindingInput) (uuid.UUID, error)
	InsertSolution(ctx context.Context, in *db.SolutionInput) (uuid.UUID, error)
	InsertLonglistTechnology(ctx context.Context, in *db.LonglistInput) (uuid.UUID, error)
	TechnologyExists(ctx context.Context, id uuid.UUID) (bool, error)
	FindTechnologyByName(ctx context.Context, name, provider string) (*uuid.UUID, error)
	ListShortlist(ctx context.Context, studyID uuid.UUID) ([]db.ShortlistEntry, error)
	UpsertEvaluation(ctx context.Context, in *db.EvaluationInput) (uuid.UUID, error)
	GetStudy(ctx context.Context, id uuid.UUID) (*db.Study, error)
	InsertReport(ctx context.Context, in *db.ReportInput) (uuid.UUID, error)

	AppendSessionLog(ctx context.Context, in *db.SessionLogInput) error
	RecordDeadLetter(ctx context.Context, in *db.DeadLetterInput) error
}

type pgStore struct {
	*db.DB
}

// NewPostgresStore adapts a database handle to Store.
func NewPostgresStore(database *db.DB) Store {
	return pgStore{database}
}

func (s pgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.WithTx(ctx, func(tx *db.DB) error {
		return fn(pgStore{tx})
	})
}
