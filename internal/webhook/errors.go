package webhook

import "errors"

// Normalization outcomes that skip a write without failing the event.
var (
	ErrUnresolvedEvaluation = errors.New("evaluation target not found in shortlist")
	ErrAmbiguousEvaluation  = errors.New("evaluation target matches several shortlist entries")
	ErrMissingStudy         = errors.New("event carries no study_id and session has none")
	ErrInvalidSessionID     = errors.New("session_id is not a valid UUID")
)

// IsSkip reports whether err means a write was deliberately skipped rather
// than failed.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnresolvedEvaluation) ||
		errors.Is(err, ErrAmbiguousEvaluation) ||
		errors.Is(err, ErrMissingStudy)
}
