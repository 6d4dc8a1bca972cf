// Package observability provides formatted terminal output for inspecting
// study sessions from the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/scout-webhook/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the inspection commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintSession outputs a session's status, progress and outcome.
func (p *Printer) PrintSession(sess *db.Session) {
	if sess == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session:  %s\n", sess.ID)
	if sess.StudyID != nil {
		fmt.Fprintf(&sb, "Study:    %s\n", *sess.StudyID)
	}
	fmt.Fprintf(&sb, "Type:     %s\n", sess.SessionType)
	fmt.Fprintf(&sb, "Status:   %s\n", sess.Status)
	if sess.CurrentPhase != nil {
		fmt.Fprintf(&sb, "Phase:    %s\n", *sess.CurrentPhase)
	}
	fmt.Fprintf(&sb, "Progress: %s %d%%\n", progressBar(sess.Progress, 20), sess.Progress)
	if sess.StartedAt != nil {
		fmt.Fprintf(&sb, "Started:  %s\n", sess.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if sess.CompletedAt != nil {
		fmt.Fprintf(&sb, "Finished: %s\n", sess.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if sess.ErrorMessage != nil {
		fmt.Fprintf(&sb, "\nError: %s\n", *sess.ErrorMessage)
	}

	p.printBox("STUDY SESSION", strings.TrimSuffix(sb.String(), "\n"))
}

// progressBar renders pct (0-100) as a fixed-width bar.
func progressBar(pct, width int) string {
	pct = max(0, min(pct, 100))
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

// PrintSessionLogs outputs the audit entries, newest first, as returned by
// the database.
func (p *Printer) PrintSessionLogs(logs []db.SessionLog) {
	if len(logs) == 0 {
		p.printBox("SESSION LOG", "No entries")
		return
	}

	var sb strings.Builder
	for i, l := range logs {
		phase := ""
		if l.Phase != nil {
			phase = " " + *l.Phase
		}
		fmt.Fprintf(&sb, "%s %s%s\n", l.CreatedAt.Format("15:04:05"), levelMarker(l.Level), phase)
		fmt.Fprintf(&sb, "  %s\n", l.Message)
		if i < len(logs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(fmt.Sprintf("SESSION LOG (%d entries)", len(logs)), strings.TrimSuffix(sb.String(), "\n"))
}

func levelMarker(level string) string {
	switch level {
	case db.LogLevelError:
		return "✗ ERROR"
	case db.LogLevelWarn:
		return "⚠ WARN"
	case db.LogLevelDebug:
		return "· DEBUG"
	default:
		return "• INFO"
	}
}

// PrintEvaluations outputs the top evaluated technologies by overall score.
func (p *Printer) PrintEvaluations(evals []db.Evaluation) {
	if len(evals) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Evaluated technologies: %d\n\n", len(evals))

	count := min(len(evals), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := evals[i]
		fmt.Fprintf(&sb, "#%d  %s\n", i+1, e.TechnologyName)
		if e.OverallScore != nil {
			fmt.Fprintf(&sb, "    Overall: %.1f/10\n", *e.OverallScore)
		}
		if len(e.Strengths) > 0 {
			fmt.Fprintf(&sb, "    + %s\n", strings.Join(e.Strengths, ", "))
		}
		if len(e.Weaknesses) > 0 {
			fmt.Fprintf(&sb, "    - %s\n", strings.Join(e.Weaknesses, ", "))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(evals) > maxItemsToShow {
		fmt.Fprintf(&sb, "\n... and %d more", len(evals)-maxItemsToShow)
	}

	p.printBox("EVALUATION RANKING", strings.TrimSuffix(sb.String(), "\n"))
}
