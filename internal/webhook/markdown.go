package webhook

import (
	"regexp"
	"strings"
)

// LegacyResearchTitle marks an older sender generation that packed every
// finding into one markdown summary instead of one event per finding.
const LegacyResearchTitle = "Web Research Results"

// LegacyFinding is one block parsed out of a legacy research summary.
type LegacyFinding struct {
	Title   string
	URL     string
	Summary string
}

var (
	legacyBlockStart = regexp.MustCompile(`###\s*\d+\.\s*`)
	legacyTitle      = regexp.MustCompile(`(?s)\*\*Title:?\*\*:?\s*(.*?)\s*\*\*(?:URL|Link|Source|Summary):?\*\*`)
	legacyTitleLine  = regexp.MustCompile(`\*\*Title:?\*\*:?\s*([^\n]*)`)
	legacyURL        = regexp.MustCompile(`\*\*(?:URL|Link|Source):?\*\*:?\s*(\S+)`)
	legacySummary    = regexp.MustCompile(`(?s)\*\*Summary:?\*\*:?\s*(.*)`)
	httpURL          = regexp.MustCompile(`https?://[^\s)\]>]+`)
)

// IsLegacyResearchBlob reports whether a finding is the legacy markdown bundle.
func IsLegacyResearchBlob(title, summary string) bool {
	return strings.TrimSpace(title) == LegacyResearchTitle && strings.Contains(summary, "###")
}

// ParseLegacyResearch splits a legacy summary into its
// "### N. **Title**: ... **URL**: ... **Summary**: ..." blocks. Blocks with
// neither a title nor a URL are dropped.
func ParseLegacyResearch(summary string) []LegacyFinding {
	starts := legacyBlockStart.FindAllStringIndex(summary, -1)
	if len(starts) == 0 {
		return nil
	}

	findings := make([]LegacyFinding, 0, len(starts))
	for i, loc := range starts {
		end := len(summary)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		block := summary[loc[1]:end]

		f := LegacyFinding{
			Title:   legacyField(block, legacyTitle),
			URL:     legacyLink(block),
			Summary: legacyField(block, legacySummary),
		}
		if f.Title == "" {
			f.Title = legacyField(block, legacyTitleLine)
		}
		if f.Title == "" && f.URL == "" {
			continue
		}
		if f.Title == "" {
			f.Title = f.URL
		}
		findings = append(findings, f)
	}
	return findings
}

func legacyField(block string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// legacyLink reads the URL field, unwrapping markdown links and angle brackets.
func legacyLink(block string) string {
	field := legacyField(block, legacyURL)
	if field == "" {
		return ""
	}
	if u := httpURL.FindString(field); u != "" {
		return u
	}
	return strings.Trim(field, "<>[]()")
}
