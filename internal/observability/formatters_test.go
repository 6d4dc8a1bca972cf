package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/stretchr/testify/assert"
)

func TestPrintSession(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	studyID := uuid.New()
	phase := "evaluation"
	msg := "pipeline crashed"
	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	p.PrintSession(&db.Session{
		ID:           uuid.New(),
		StudyID:      &studyID,
		SessionType:  "evaluation",
		Status:       db.SessionStatusFailed,
		CurrentPhase: &phase,
		Progress:     50,
		ErrorMessage: &msg,
		StartedAt:    &started,
	})
	output := buf.String()

	assert.Contains(t, output, "STUDY SESSION")
	assert.Contains(t, output, studyID.String())
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "[##########..........] 50%")
	assert.Contains(t, output, "2026-03-01 09:30:00")
	assert.Contains(t, output, "Error: pipeline crashed")
}

func TestPrintSession_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSession(nil)
	assert.Empty(t, buf.String())
}

func TestPrintSessionLogs(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	phase := "research"
	p.PrintSessionLogs([]db.SessionLog{
		{ID: 2, Level: db.LogLevelWarn, Phase: &phase, Message: "Evaluation target not found"},
		{ID: 1, Level: db.LogLevelInfo, Message: "Research started"},
	})
	output := buf.String()

	assert.Contains(t, output, "SESSION LOG (2 entries)")
	assert.Contains(t, output, "⚠ WARN research")
	assert.Contains(t, output, "• INFO")
	assert.Less(t, strings.Index(output, "Evaluation target"), strings.Index(output, "Research started"))
}

func TestPrintSessionLogs_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSessionLogs(nil)
	assert.Contains(t, buf.String(), "No entries")
}

func TestPrintEvaluations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var evals []db.Evaluation
	for i := range 7 {
		score := float64(9 - i)
		evals = append(evals, db.Evaluation{
			TechnologyName: "Tech " + string(rune('A'+i)),
			OverallScore:   &score,
			Strengths:      []string{"mature"},
		})
	}
	p.PrintEvaluations(evals)
	output := buf.String()

	assert.Contains(t, output, "Evaluated technologies: 7")
	assert.Contains(t, output, "#1  Tech A")
	assert.Contains(t, output, "Overall: 9.0/10")
	assert.Contains(t, output, "+ mature")
	assert.NotContains(t, output, "Tech F")
	assert.Contains(t, output, "... and 2 more")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "ééééééé...", clip(strings.Repeat("é", 20), 10))
}
