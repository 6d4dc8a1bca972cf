package webhook

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/jonathan/scout-webhook/internal/realtime"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Store. InTx restores the pre-transaction state
// when fn fails.
type memStore struct {
	mu sync.Mutex

	sessions     map[uuid.UUID]db.Session
	studies      map[uuid.UUID]db.Study
	shortlists   map[uuid.UUID][]db.ShortlistEntry
	technologies map[uuid.UUID]string

	findings    []db.ResearchFindingInput
	solutions   []db.SolutionInput
	longlist    []db.LonglistInput
	evaluations map[uuid.UUID]db.EvaluationInput
	reports     []db.ReportInput
	logs        []db.SessionLogInput
	deadLetters []db.DeadLetterInput

	failOn map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		sessions:     map[uuid.UUID]db.Session{},
		studies:      map[uuid.UUID]db.Study{},
		shortlists:   map[uuid.UUID][]db.ShortlistEntry{},
		technologies: map[uuid.UUID]string{},
		evaluations:  map[uuid.UUID]db.EvaluationInput{},
		failOn:       map[string]bool{},
	}
}

func (s *memStore) addStudy(name string) uuid.UUID {
	id := uuid.New()
	s.studies[id] = db.Study{ID: id, Name: name}
	return id
}

func (s *memStore) addSession(studyID *uuid.UUID, status string) uuid.UUID {
	id := uuid.New()
	s.sessions[id] = db.Session{ID: id, StudyID: studyID, Status: status}
	return id
}

func (s *memStore) addShortlist(studyID uuid.UUID, names ...string) []db.ShortlistEntry {
	for _, name := range names {
		s.shortlists[studyID] = append(s.shortlists[studyID], db.ShortlistEntry{
			ID: uuid.New(), StudyID: studyID, TechnologyName: name,
		})
	}
	return s.shortlists[studyID]
}

func (s *memStore) session(id uuid.UUID) db.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *memStore) lastLog() db.SessionLogInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return db.SessionLogInput{}
	}
	return s.logs[len(s.logs)-1]
}

type memSnapshot struct {
	sessions    map[uuid.UUID]db.Session
	evaluations map[uuid.UUID]db.EvaluationInput
	findings    int
	solutions   int
	longlist    int
	reports     int
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		sessions:    make(map[uuid.UUID]db.Session, len(s.sessions)),
		evaluations: make(map[uuid.UUID]db.EvaluationInput, len(s.evaluations)),
		findings:    len(s.findings),
		solutions:   len(s.solutions),
		longlist:    len(s.longlist),
		reports:     len(s.reports),
	}
	for k, v := range s.sessions {
		snap.sessions[k] = v
	}
	for k, v := range s.evaluations {
		snap.evaluations[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.sessions = snap.sessions
	s.evaluations = snap.evaluations
	s.findings = s.findings[:snap.findings]
	s.solutions = s.solutions[:snap.solutions]
	s.longlist = s.longlist[:snap.longlist]
	s.reports = s.reports[:snap.reports]
}

func (s *memStore) fail(op string) error {
	if s.failOn[op] {
		return errInjected
	}
	return nil
}

func (s *memStore) InTx(_ context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) GetSession(_ context.Context, id uuid.UUID) (*db.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *memStore) transition(id uuid.UUID, fn func(*db.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || db.IsTerminalStatus(sess.Status) {
		return false
	}
	fn(&sess)
	s.sessions[id] = sess
	return true
}

func (s *memStore) StartSession(_ context.Context, id uuid.UUID, phase string) (bool, error) {
	if err := s.fail("StartSession"); err != nil {
		return false, err
	}
	return s.transition(id, func(sess *db.Session) {
		sess.Status = db.SessionStatusRunning
		sess.CurrentPhase = &phase
	}), nil
}

func (s *memStore) UpdateSessionProgress(_ context.Context, id uuid.UUID, progress int, phase string) (bool, error) {
	if err := s.fail("UpdateSessionProgress"); err != nil {
		return false, err
	}
	return s.transition(id, func(sess *db.Session) {
		sess.Status = db.SessionStatusRunning
		sess.Progress = progress
		sess.CurrentPhase = &phase
	}), nil
}

func (s *memStore) CompleteSession(_ context.Context, id uuid.UUID, phase string, summary any) (bool, error) {
	if err := s.fail("CompleteSession"); err != nil {
		return false, err
	}
	return s.transition(id, func(sess *db.Session) {
		sess.Status = db.SessionStatusCompleted
		sess.Progress = 100
		sess.CurrentPhase = &phase
		if m, ok := summary.(map[string]any); ok {
			sess.Summary = m
		}
	}), nil
}

func (s *memStore) FailSession(_ context.Context, id uuid.UUID, message string) (bool, error) {
	if err := s.fail("FailSession"); err != nil {
		return false, err
	}
	return s.transition(id, func(sess *db.Session) {
		sess.Status = db.SessionStatusFailed
		sess.ErrorMessage = &message
	}), nil
}

func (s *memStore) InsertResearchFinding(_ context.Context, in *db.ResearchFindingInput) (uuid.UUID, error) {
	if err := s.fail("InsertResearchFinding"); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, *in)
	return uuid.New(), nil
}

func (s *memStore) InsertSolution(_ context.Context, in *db.SolutionInput) (uuid.UUID, error) {
	if err := s.fail("InsertSolution"); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solutions = append(s.solutions, *in)
	return uuid.New(), nil
}

func (s *memStore) InsertLonglistTechnology(_ context.Context, in *db.LonglistInput) (uuid.UUID, error) {
	if err := s.fail("InsertLonglistTechnology"); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.longlist = append(s.longlist, *in)
	return uuid.New(), nil
}

func (s *memStore) TechnologyExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.technologies[id]
	return ok, nil
}

func (s *memStore) FindTechnologyByName(_ context.Context, name, _ string) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.technologies {
		if n == name {
			found := id
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListShortlist(_ context.Context, studyID uuid.UUID) ([]db.ShortlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.ShortlistEntry(nil), s.shortlists[studyID]...), nil
}

func (s *memStore) UpsertEvaluation(_ context.Context, in *db.EvaluationInput) (uuid.UUID, error) {
	if err := s.fail("UpsertEvaluation"); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations[in.ShortlistID] = *in
	return uuid.New(), nil
}

func (s *memStore) GetStudy(_ context.Context, id uuid.UUID) (*db.Study, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	study, ok := s.studies[id]
	if !ok {
		return nil, nil
	}
	return &study, nil
}

func (s *memStore) InsertReport(_ context.Context, in *db.ReportInput) (uuid.UUID, error) {
	if err := s.fail("InsertReport"); err != nil {
		return uuid.Nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *in)
	return uuid.New(), nil
}

func (s *memStore) AppendSessionLog(_ context.Context, in *db.SessionLogInput) error {
	if err := s.fail("AppendSessionLog"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *in)
	return nil
}

func (s *memStore) RecordDeadLetter(_ context.Context, in *db.DeadLetterInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadLetters = append(s.deadLetters, *in)
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []realtime.SessionUpdate
}

func (p *recordingPublisher) Publish(_ context.Context, u realtime.SessionUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}
