package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/jonathan/scout-webhook/internal/logging"
	"github.com/jonathan/scout-webhook/internal/realtime"
	"go.uber.org/zap"
)

// Outcome summarizes what processing an event did.
type Outcome string

// Event outcomes, also used as the metrics label.
const (
	OutcomeApplied  Outcome = "applied"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	OutcomeRejected Outcome = "rejected"
	OutcomeIgnored  Outcome = "ignored"
)

// Result reports the effect of one event. Err is set only for failures; the
// HTTP response does not depend on it.
type Result struct {
	Event    string
	Kind     Kind
	Outcome  Outcome
	Rows     int
	Warnings []string
	Err      error
}

// Processor classifies webhook payloads and persists their effects.
type Processor struct {
	store     Store
	publisher realtime.Publisher
	logger    *zap.Logger
}

// NewProcessor creates a processor. publisher may be nil.
func NewProcessor(store Store, publisher realtime.Publisher, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, publisher: publisher, logger: logger}
}

// run carries the state of one event through its branch.
type run struct {
	p         *Payload
	kind      Kind
	sessionID uuid.UUID
	tx        Store

	study       *uuid.UUID
	studyLoaded bool

	level    string
	phase    string
	message  string
	rows     int
	skipped  bool
	warnings []string
	update   *realtime.SessionUpdate
}

func (r *run) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
	r.level = db.LogLevelWarn
}

func (r *run) skip(format string, args ...any) {
	r.warn(format, args...)
	r.skipped = true
}

// Process handles one decoded webhook body. Branch writes share a single
// transaction; the audit entry is written after it so failures are recorded
// too.
func (p *Processor) Process(ctx context.Context, payload *Payload) Result {
	kind := Classify(payload.Event)
	res := Result{Event: payload.Event, Kind: kind}
	logger := logging.WithEvent(p.logger, payload.Event, payload.SessionID)

	// Post-dispatch bookkeeping must not be cut short by the caller going away.
	bg := context.WithoutCancel(ctx)

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		res.Outcome = OutcomeRejected
		res.Err = fmt.Errorf("%w: %q", ErrInvalidSessionID, payload.SessionID)
		logger.Warn("rejecting webhook event", zap.Error(res.Err))
		p.deadLetter(bg, logger, payload, res.Err)
		return res
	}

	r := &run{
		p:         payload,
		kind:      kind,
		sessionID: sessionID,
		level:     db.LogLevelInfo,
		phase:     payload.Phase(kind.DefaultPhase()),
	}

	err = p.store.InTx(ctx, func(tx Store) error {
		r.tx = tx
		r.rows = 0
		r.warnings = nil
		r.update = nil
		return p.dispatch(ctx, r)
	})

	switch {
	case err == nil && kind == KindUnknown:
		res.Outcome = OutcomeIgnored
	case err == nil && r.skipped && r.rows == 0:
		res.Outcome = OutcomeSkipped
	case err == nil:
		res.Outcome = OutcomeApplied
	case IsSkip(err):
		res.Outcome = OutcomeSkipped
		r.rows = 0
		r.update = nil
		r.warn("%s", skipReason(err))
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
		r.rows = 0
		r.update = nil
		r.level = db.LogLevelError
		r.message = fmt.Sprintf("Failed to process %s event: %v", payload.Event, err)
		logger.Error("failed to persist webhook event", zap.Error(err))
		p.deadLetter(bg, logger, payload, err)
	}
	res.Rows = r.rows
	res.Warnings = r.warnings

	if auditErr := p.audit(bg, r); auditErr != nil {
		logger.Error("failed to write session log", zap.Error(auditErr))
		res.Err = errors.Join(res.Err, auditErr)
	}

	if r.update != nil && p.publisher != nil {
		if pubErr := p.publisher.Publish(bg, *r.update); pubErr != nil {
			logger.Warn("failed to publish session update", zap.Error(pubErr))
		}
	}

	logger.Info("processed webhook event",
		zap.String("kind", string(kind)),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("rows", res.Rows),
		zap.Strings("warnings", res.Warnings),
	)
	return res
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingStudy):
		return "Skipped: no study_id on event or session"
	case errors.Is(err, ErrAmbiguousEvaluation), errors.Is(err, ErrUnresolvedEvaluation):
		return "Evaluation not saved: " + innermost(err)
	default:
		return err.Error()
	}
}

// innermost strips transaction wrapping from a skip error's message.
func innermost(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+ErrAmbiguousEvaluation.Error()); i >= 0 {
		return msg[i+2:]
	}
	if i := strings.LastIndex(msg, ": "+ErrUnresolvedEvaluation.Error()); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func (p *Processor) audit(ctx context.Context, r *run) error {
	message := r.message
	if message == "" {
		message = r.p.Event
	}
	if len(r.warnings) > 0 {
		message += " (" + strings.Join(r.warnings, "; ") + ")"
	}
	return p.store.AppendSessionLog(ctx, &db.SessionLogInput{
		SessionID: r.sessionID,
		Level:     r.level,
		Phase:     r.phase,
		Message:   message,
		Details:   r.p.Raw,
	})
}

func (p *Processor) deadLetter(ctx context.Context, logger *zap.Logger, payload *Payload, cause error) {
	err := p.store.RecordDeadLetter(ctx, &db.DeadLetterInput{
		Event:     payload.Event,
		SessionID: payload.SessionID,
		Payload:   payload.Raw,
		Error:     cause.Error(),
	})
	if err != nil {
		logger.Error("failed to record dead letter", zap.Error(err))
	}
}

func (p *Processor) dispatch(ctx context.Context, r *run) error {
	switch r.kind.Group() {
	case GroupLifecycle:
		return p.handleStart(ctx, r)
	case GroupProgress:
		return p.handleProgress(ctx, r)
	case GroupCompletion:
		return p.handleComplete(ctx, r)
	case GroupResult:
		return p.handleResult(ctx, r)
	case GroupError:
		return p.handleError(ctx, r)
	case GroupLog:
		return p.handleLog(ctx, r)
	default:
		r.level = db.LogLevelWarn
		r.message = "Unknown event type: " + r.p.Event
		return nil
	}
}

// studyID resolves the event's study, falling back to the session row.
func (r *run) studyID(ctx context.Context) (uuid.UUID, error) {
	if !r.studyLoaded {
		r.studyLoaded = true
		if id, err := uuid.Parse(r.p.StudyID); err == nil {
			r.study = &id
		} else {
			session, err := r.tx.GetSession(ctx, r.sessionID)
			if err != nil {
				return uuid.Nil, err
			}
			if session != nil && session.StudyID != nil {
				r.study = session.StudyID
			}
		}
	}
	if r.study == nil {
		return uuid.Nil, ErrMissingStudy
	}
	return *r.study, nil
}

func (r *run) sessionRef() *uuid.UUID {
	id := r.sessionID
	return &id
}

func (r *run) publish(status string, progress int) {
	r.update = &realtime.SessionUpdate{
		SessionID: r.sessionID.String(),
		Event:     r.p.Event,
		Status:    status,
		Phase:     r.phase,
		Progress:  progress,
		Message:   r.message,
	}
}

func (r *run) staleSession() {
	r.warn("session not updated: missing or already finished")
}

func (p *Processor) handleStart(ctx context.Context, r *run) error {
	r.message = firstNonEmpty(r.p.Message(), "Session started")
	changed, err := r.tx.StartSession(ctx, r.sessionID, r.phase)
	if err != nil {
		return err
	}
	if !changed {
		r.staleSession()
		return nil
	}
	r.rows++
	r.publish(db.SessionStatusRunning, r.p.Progress())
	return nil
}

func (p *Processor) handleProgress(ctx context.Context, r *run) error {
	progress := r.p.Progress()
	r.message = firstNonEmpty(r.p.Message(), fmt.Sprintf("%s progress: %d%%", r.phase, progress))
	changed, err := r.tx.UpdateSessionProgress(ctx, r.sessionID, progress, r.phase)
	if err != nil {
		return err
	}
	if !changed {
		r.staleSession()
		return nil
	}
	r.rows++
	r.publish(db.SessionStatusRunning, progress)
	return nil
}

func (p *Processor) handleComplete(ctx context.Context, r *run) error {
	r.message = firstNonEmpty(r.p.Message(), fmt.Sprintf("%s phase completed", r.phase))
	summary := r.p.Summary()

	if r.p.hasEmbeddedResults() || (r.kind == KindEvaluationComplete && HasNarrative(summary)) {
		studyID, err := r.studyID(ctx)
		switch {
		case errors.Is(err, ErrMissingStudy):
			r.warn("embedded results not saved: no study_id on event or session")
		case err != nil:
			return err
		default:
			if err := p.ingestEmbedded(ctx, r, studyID); err != nil {
				return err
			}
			if r.kind == KindEvaluationComplete && HasNarrative(summary) {
				if err := p.writeReport(ctx, r, studyID, summary); err != nil {
					return err
				}
			}
		}
	}

	changed, err := r.tx.CompleteSession(ctx, r.sessionID, r.phase, summary)
	if err != nil {
		return err
	}
	if !changed {
		r.staleSession()
		return nil
	}
	r.rows++
	r.publish(db.SessionStatusCompleted, 100)
	return nil
}

// ingestEmbedded saves result objects carried by a completion payload.
func (p *Processor) ingestEmbedded(ctx context.Context, r *run, studyID uuid.UUID) error {
	for _, m := range r.p.Items(findingKeys...) {
		if err := p.saveFinding(ctx, r, studyID, m); err != nil {
			return err
		}
	}
	for _, m := range r.p.Items(solutionKeys...) {
		if err := p.saveSolution(ctx, r, studyID, m); err != nil {
			return err
		}
	}
	for _, m := range r.p.Items(technologyKeys...) {
		if err := p.saveTechnology(ctx, r, studyID, m, db.LonglistSourceSession); err != nil {
			return err
		}
	}
	for _, m := range r.p.evaluations() {
		err := p.saveEvaluation(ctx, r, studyID, m)
		if IsSkip(err) {
			r.warn("%s", skipReason(err))
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) writeReport(ctx context.Context, r *run, studyID uuid.UUID, summary map[string]any) error {
	study, err := r.tx.GetStudy(ctx, studyID)
	if err != nil {
		return err
	}
	in := BuildReport(study, summary)
	in.StudyID = studyID
	in.SessionID = r.sessionRef()
	if _, err := r.tx.InsertReport(ctx, &in); err != nil {
		return err
	}
	r.rows++
	return nil
}

func (p *Processor) handleResult(ctx context.Context, r *run) error {
	studyID, err := r.studyID(ctx)
	if err != nil {
		return err
	}

	switch r.kind {
	case KindResearchFinding:
		r.message = "Research finding received"
		if items := r.p.Items(findingKeys...); len(items) > 0 {
			for _, m := range items {
				if err := p.saveFinding(ctx, r, studyID, m); err != nil {
					return err
				}
			}
			return nil
		}
		return p.saveFinding(ctx, r, studyID, r.p.Object("finding", "research_finding"))

	case KindSolutionIdentified:
		r.message = "Solution identified"
		return p.saveSolution(ctx, r, studyID, r.p.Object("solution"))

	case KindTechnologyMatched:
		r.message = "Technology matched"
		return p.saveTechnology(ctx, r, studyID, r.p.Object("technology", "match"), db.LonglistSourceSession)

	case KindTechnologyExtracted:
		r.message = "Technology extracted"
		return p.saveTechnology(ctx, r, studyID, r.p.Object("technology"), db.LonglistSourceExtracted)

	case KindTechnologyEvaluated:
		r.message = "Technology evaluated"
		return p.saveEvaluation(ctx, r, studyID, r.p.Object("evaluation"))

	case KindContentExtracted:
		obj := r.p.Object("content")
		in, ok := FindingFromContent(obj)
		if !ok {
			r.message = "Content extracted"
			return nil
		}
		r.message = "Content extracted from " + in.SourceURL
		return p.insertFinding(ctx, r, studyID, in)
	}
	return nil
}

func (p *Processor) saveFinding(ctx context.Context, r *run, studyID uuid.UUID, m map[string]any) error {
	title := FirstString(m["title"])
	summary := FirstString(m["summary"])
	if IsLegacyResearchBlob(title, summary) {
		legacy := ParseLegacyResearch(summary)
		if len(legacy) == 0 {
			r.skip("legacy research summary contained no parsable entries")
			return nil
		}
		for _, f := range legacy {
			if err := p.insertFinding(ctx, r, studyID, FindingFromLegacy(f)); err != nil {
				return err
			}
		}
		return nil
	}

	in, ok := FindingFromMap(m)
	if !ok {
		r.skip("research finding has no title or url")
		return nil
	}
	return p.insertFinding(ctx, r, studyID, in)
}

func (p *Processor) insertFinding(ctx context.Context, r *run, studyID uuid.UUID, in db.ResearchFindingInput) error {
	in.StudyID = studyID
	in.SessionID = r.sessionRef()
	if _, err := r.tx.InsertResearchFinding(ctx, &in); err != nil {
		return err
	}
	r.rows++
	return nil
}

func (p *Processor) saveSolution(ctx context.Context, r *run, studyID uuid.UUID, m map[string]any) error {
	in, ok := SolutionFromMap(m)
	if !ok {
		r.skip("solution has no name")
		return nil
	}
	in.StudyID = studyID
	in.SessionID = r.sessionRef()
	if _, err := r.tx.InsertSolution(ctx, &in); err != nil {
		return err
	}
	r.rows++
	return nil
}

func (p *Processor) saveTechnology(ctx context.Context, r *run, studyID uuid.UUID, m map[string]any, source string) error {
	in, ok := LonglistFromMap(m, source)
	if !ok {
		r.skip("technology has no name")
		return nil
	}
	in.StudyID = studyID
	in.SessionID = r.sessionRef()

	if id := CatalogueIDFrom(m); id != nil {
		exists, err := r.tx.TechnologyExists(ctx, *id)
		if err != nil {
			return err
		}
		if exists {
			in.ExistingTechnologyID = id
		} else {
			r.warn("catalogue technology %s not found, link dropped", id)
		}
	} else {
		id, err := r.tx.FindTechnologyByName(ctx, in.TechnologyName, in.Provider)
		if err != nil {
			return err
		}
		in.ExistingTechnologyID = id
	}

	if _, err := r.tx.InsertLonglistTechnology(ctx, &in); err != nil {
		return err
	}
	r.rows++
	return nil
}

func (p *Processor) saveEvaluation(ctx context.Context, r *run, studyID uuid.UUID, m map[string]any) error {
	// The target may sit on the evaluation object, under data, or at the top level.
	var ids []string
	var name string
	for _, src := range []map[string]any{m, r.p.Data, r.p.Raw} {
		if ids, name = EvaluationTarget(src); len(ids) > 0 || name != "" {
			break
		}
	}

	entries, err := r.tx.ListShortlist(ctx, studyID)
	if err != nil {
		return err
	}
	entry, err := ResolveShortlist(entries, ids, name)
	if err != nil {
		return err
	}

	in := EvaluationFromMap(m)
	in.StudyID = studyID
	in.ShortlistID = entry.ID
	in.SessionID = r.sessionRef()
	if _, err := r.tx.UpsertEvaluation(ctx, &in); err != nil {
		return err
	}
	r.rows++
	return nil
}

func (p *Processor) handleError(ctx context.Context, r *run) error {
	r.level = db.LogLevelError
	r.message = firstNonEmpty(
		r.p.Message(),
		FirstString(r.p.Data["error"], r.p.Raw["error"], r.p.Data["error_message"]),
		"Pipeline reported an error",
	)
	if !truthy(r.p.Data["critical"]) && !truthy(r.p.Raw["critical"]) {
		return nil
	}

	changed, err := r.tx.FailSession(ctx, r.sessionID, r.message)
	if err != nil {
		return err
	}
	if !changed {
		r.staleSession()
		r.level = db.LogLevelError
		return nil
	}
	r.rows++
	r.publish(db.SessionStatusFailed, r.p.Progress())
	return nil
}

func (p *Processor) handleLog(_ context.Context, r *run) error {
	r.message = firstNonEmpty(r.p.Message(), "log")
	level := strings.ToLower(FirstString(r.p.Raw["level"], r.p.Data["level"]))
	switch level {
	case "warning":
		level = db.LogLevelWarn
	case "fatal", "critical":
		level = db.LogLevelError
	}
	if db.ValidLogLevel(level) {
		r.level = level
	}
	return nil
}

// Keys under which completion and result payloads carry lists.
var (
	findingKeys    = []string{"findings", "research_findings", "results"}
	solutionKeys   = []string{"solutions"}
	technologyKeys = []string{"technologies", "longlist"}
	evaluationKeys = []string{"evaluations"}
	listKeys       = concat(findingKeys, solutionKeys, technologyKeys, evaluationKeys, []string{"evaluation"})
)

func (p *Payload) hasEmbeddedResults() bool {
	for _, k := range listKeys {
		if p.Lookup(k) != nil {
			return true
		}
	}
	return false
}

// evaluations returns embedded evaluation objects, including the single
// "evaluation" object older senders put on evaluation_complete.
func (p *Payload) evaluations() []map[string]any {
	items := p.Items(evaluationKeys...)
	if m := asMap(p.Lookup("evaluation")); m != nil {
		items = append(items, m)
	}
	return items
}

// Summary returns the completion summary: an explicit "summary" object when
// present, otherwise the data object minus embedded result lists.
func (p *Payload) Summary() map[string]any {
	if m := asMap(FirstDefined(p.Raw["summary"], p.Data["summary"])); m != nil {
		return m
	}
	if len(p.Data) == 0 {
		return nil
	}
	out := make(map[string]any, len(p.Data))
	for k, v := range p.Data {
		out[k] = v
	}
	for _, k := range listKeys {
		delete(out, k)
	}
	return out
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
