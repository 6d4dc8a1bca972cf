package webhook

import (
	"fmt"
	"strings"

	"github.com/jonathan/scout-webhook/internal/db"
)

// ReportTitlePrefix prefixes every generated report title.
const ReportTitlePrefix = "Evaluation report: "

// HasNarrative reports whether a completion summary carries enough prose to
// build a report from.
func HasNarrative(summary map[string]any) bool {
	return narrativeOf(summary) != ""
}

func narrativeOf(summary map[string]any) string {
	return TextOf(FirstDefined(summary["executive_summary"], summary["summary"], summary["narrative"]))
}

// BuildReport assembles a report row from an evaluation summary and the
// study metadata. study may be nil when the study row is missing.
func BuildReport(study *db.Study, summary map[string]any) db.ReportInput {
	in := db.ReportInput{
		ExecutiveSummary:     narrativeOf(summary),
		TechnologyComparison: FormatRanking(summary),
		Recommendations:      FormatRecommendations(summary),
		Conclusions:          TextOf(FirstDefined(summary["conclusion"], summary["conclusions"], summary["next_steps"])),
		RawSummary:           summary,
	}

	name := "study"
	if study != nil {
		in.StudyID = study.ID
		if study.Name != "" {
			name = study.Name
		}
		if study.ProblemStatement != nil {
			in.ProblemStatement = *study.ProblemStatement
		}
		if study.Objectives != nil {
			in.Objectives = *study.Objectives
		}
	}
	in.Title = ReportTitlePrefix + name
	return in
}

// FormatRanking renders the ranked technology list as numbered lines,
// "1. Name (score: 8.5)". Entries without a name are skipped.
func FormatRanking(summary map[string]any) string {
	var list []any
	for _, k := range []string{"ranking", "rankings", "technology_ranking"} {
		if l := asList(summary[k]); l != nil {
			list = l
			break
		}
	}

	var b strings.Builder
	n := 0
	for _, item := range list {
		var name string
		var score *float64
		if m := asMap(item); m != nil {
			name = FirstString(m["name"], m["technology_name"], m["technology"])
			score = Score10From(FirstDefined(m["score"], m["overall_score"], m["overall"]))
		} else {
			name = FirstString(item)
		}
		if name == "" {
			continue
		}
		n++
		if n > 1 {
			b.WriteByte('\n')
		}
		if score != nil {
			fmt.Fprintf(&b, "%d. %s (score: %g)", n, name, *score)
		} else {
			fmt.Fprintf(&b, "%d. %s", n, name)
		}
	}
	return b.String()
}

// FormatRecommendation renders a recommendation that may be a string, an
// object or a list of either. Lists are joined one per line.
func FormatRecommendation(v any) string {
	if list := asList(v); list != nil {
		lines := make([]string, 0, len(list))
		for _, item := range list {
			if s := FormatRecommendation(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	}
	return TextOf(v)
}

// FormatRecommendations combines the primary recommendation and alternative
// options into one text block. It falls back to a plain recommendations
// field when neither is present.
func FormatRecommendations(summary map[string]any) string {
	var sections []string

	primary := FormatRecommendation(FirstDefined(
		summary["primary_recommendation"], summary["top_recommendation"], summary["recommendation"]))
	if primary != "" {
		sections = append(sections, "Primary recommendation: "+primary)
	}

	alts := asList(FirstDefined(summary["alternative_options"], summary["alternatives"]))
	if alts == nil {
		if v := FirstDefined(summary["alternative_options"], summary["alternatives"]); v != nil {
			alts = []any{v}
		}
	}
	var lines []string
	for _, alt := range alts {
		if s := FormatRecommendation(alt); s != "" {
			lines = append(lines, "- "+s)
		}
	}
	if len(lines) > 0 {
		sections = append(sections, "Alternative options:\n"+strings.Join(lines, "\n"))
	}

	if len(sections) == 0 {
		return FormatRecommendation(summary["recommendations"])
	}
	return strings.Join(sections, "\n\n")
}
