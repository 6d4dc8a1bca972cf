package webhook

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
)

// maxExtractedSummary bounds the summary taken from raw extracted content.
const maxExtractedSummary = 500

// FindingFromMap normalizes one research finding. ok is false when the object
// has neither a title nor a source URL.
func FindingFromMap(m map[string]any) (in db.ResearchFindingInput, ok bool) {
	sourceURL := FirstString(m["source_url"], m["url"], m["link"])
	title := FirstString(m["title"], m["name"], m["source_title"])
	if title == "" {
		title = sourceURL
	}
	if title == "" {
		return in, false
	}

	sourceType := FirstString(m["source_type"], m["type"])
	if sourceType == "" && sourceURL != "" {
		sourceType = InferSourceTypeFromURL(sourceURL)
	}

	in = db.ResearchFindingInput{
		Title:               title,
		Summary:             TextOf(FirstDefined(m["summary"], m["description"], m["content"])),
		SourceURL:           sourceURL,
		SourceType:          NormalizeSourceType(sourceType),
		RelevanceScore:      RelevanceFrom(FirstDefined(m["relevance_score"], m["relevance"], m["score"])),
		KeyFindings:         StringList(FirstDefined(m["key_findings"], m["findings"], m["highlights"])),
		TechnologyMentioned: FirstString(m["technology_mentioned"], m["technology"], m["technology_name"]),
		ProviderMentioned:   FirstString(m["provider_mentioned"], m["provider"], m["company"]),
		Authors:             TextOf(FirstDefined(m["authors"], m["author"])),
		PublicationDate:     FirstString(m["publication_date"], m["published_at"], m["date"]),
	}
	return in, true
}

// FindingFromLegacy converts a parsed legacy markdown block. Type and provider
// come from the URL.
func FindingFromLegacy(f LegacyFinding) db.ResearchFindingInput {
	return db.ResearchFindingInput{
		Title:             f.Title,
		Summary:           f.Summary,
		SourceURL:         f.URL,
		SourceType:        InferSourceTypeFromURL(f.URL),
		RelevanceScore:    DefaultRelevance,
		ProviderMentioned: HostOf(f.URL),
	}
}

// FindingFromContent builds a finding from a content_extracted payload.
// ok is false when there is no source URL to attribute it to.
func FindingFromContent(m map[string]any) (in db.ResearchFindingInput, ok bool) {
	sourceURL := FirstString(m["url"], m["source_url"])
	if sourceURL == "" {
		return in, false
	}

	summary := TextOf(m["summary"])
	if summary == "" {
		summary = truncate(TextOf(FirstDefined(m["content"], m["text"])), maxExtractedSummary)
	}
	sourceType := FirstString(m["source_type"], m["type"], m["content_type"])
	if sourceType == "" {
		sourceType = InferSourceTypeFromURL(sourceURL)
	}

	in = db.ResearchFindingInput{
		Title:          FirstString(m["title"], sourceURL),
		Summary:        summary,
		SourceURL:      sourceURL,
		SourceType:     NormalizeSourceType(sourceType),
		RelevanceScore: RelevanceFrom(FirstDefined(m["relevance_score"], m["relevance"])),
		KeyFindings:    StringList(m["key_findings"]),
	}
	return in, true
}

// SolutionFromMap normalizes an identified solution concept. ok is false when
// no name is present.
func SolutionFromMap(m map[string]any) (in db.SolutionInput, ok bool) {
	name := FirstString(m["name"], m["title"], m["solution_name"])
	if name == "" {
		return in, false
	}
	in = db.SolutionInput{
		Name:               name,
		Category:           FirstString(m["category"], m["type"]),
		Description:        TextOf(FirstDefined(m["description"], m["summary"])),
		Advantages:         StringList(FirstDefined(m["advantages"], m["pros"])),
		Disadvantages:      StringList(FirstDefined(m["disadvantages"], m["cons"])),
		ApplicableContexts: StringList(FirstDefined(m["applicable_contexts"], m["contexts"], m["use_cases"])),
		EstimatedTRLRange:  TRLRangeFrom(FirstDefined(m["estimated_trl_range"], m["trl_range"], m["trl"])),
		KeyProviders:       StringList(FirstDefined(m["key_providers"], m["providers"])),
		CostRange:          TextOf(FirstDefined(m["cost_range"], m["estimated_cost"], m["cost"])),
		ImplementationTime: TextOf(FirstDefined(m["implementation_time"], m["time_to_implement"])),
		Priority:           PriorityFrom(m["priority"]),
	}
	return in, true
}

// LonglistFromMap normalizes a technology candidate. ok is false when no
// technology name is present.
func LonglistFromMap(m map[string]any, source string) (in db.LonglistInput, ok bool) {
	name := FirstString(m["technology_name"], m["name"], m["technology"])
	if name == "" {
		return in, false
	}
	in = db.LonglistInput{
		TechnologyName:  name,
		Provider:        FirstString(m["provider"], m["company"], m["vendor"]),
		Country:         FirstString(m["country"], m["provider_country"]),
		TRL:             TRLFrom(FirstDefined(m["trl"], m["trl_level"], m["trl_estimate"])),
		Description:     TextOf(FirstDefined(m["description"], m["summary"])),
		Applications:    StringList(FirstDefined(m["applications"], m["use_cases"])),
		InclusionReason: TextOf(FirstDefined(m["inclusion_reason"], m["reason"], m["match_reason"])),
		Source:          source,
		ConfidenceScore: ConfidenceFrom(FirstDefined(m["confidence_score"], m["confidence"], m["match_score"])),
	}
	return in, true
}

// CatalogueIDFrom reads an explicit link to a catalogued technology.
func CatalogueIDFrom(m map[string]any) *uuid.UUID {
	s := FirstString(m["existing_technology_id"], m["technology_id"], m["matched_technology_id"])
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// scoreKeys lists, per sub-score, the keys tried in order in both the nested
// "scores" object and the flat payload.
var scoreKeys = map[string][]string{
	"trl":         {"trl", "trl_score", "maturity"},
	"cost":        {"cost", "cost_score", "cost_efficiency"},
	"scalability": {"scalability", "scalability_score"},
	"context_fit": {"context_fit", "context_fit_score", "contextual_fit", "fit"},
	"innovation":  {"innovation", "innovation_score", "novelty"},
	"overall":     {"overall", "overall_score", "total", "total_score", "score"},
}

func scoreFrom(scores, flat map[string]any, name string) *float64 {
	for _, k := range scoreKeys[name] {
		if s := Score10From(scores[k]); s != nil {
			return s
		}
	}
	for _, k := range scoreKeys[name] {
		if s := Score10From(flat[k]); s != nil {
			return s
		}
	}
	return nil
}

// EvaluationFromMap normalizes scores, SWOT and recommendation. Study and
// shortlist identifiers are filled in by the caller after resolution.
func EvaluationFromMap(m map[string]any) db.EvaluationInput {
	scores := asMap(m["scores"])
	if scores == nil {
		scores = map[string]any{}
	}
	swot := asMap(m["swot"])
	if swot == nil {
		swot = m
	}

	in := db.EvaluationInput{
		TRLScore:         scoreFrom(scores, m, "trl"),
		CostScore:        scoreFrom(scores, m, "cost"),
		ScalabilityScore: scoreFrom(scores, m, "scalability"),
		ContextFitScore:  scoreFrom(scores, m, "context_fit"),
		InnovationScore:  scoreFrom(scores, m, "innovation"),
		OverallScore:     scoreFrom(scores, m, "overall"),
		Strengths:        StringList(swot["strengths"]),
		Weaknesses:       StringList(swot["weaknesses"]),
		Opportunities:    StringList(swot["opportunities"]),
		Threats:          StringList(swot["threats"]),
		Recommendation:   FormatRecommendation(FirstDefined(m["recommendation"], m["recommendations"], m["verdict"])),
	}

	if in.OverallScore == nil {
		in.OverallScore = averageScore(in.TRLScore, in.CostScore, in.ScalabilityScore,
			in.ContextFitScore, in.InnovationScore)
	}

	if len(scores) > 0 {
		in.ScoresRaw = scores
	} else {
		raw := map[string]any{}
		for _, keys := range scoreKeys {
			for _, k := range keys {
				if v, ok := m[k]; ok {
					raw[k] = v
				}
			}
		}
		if len(raw) > 0 {
			in.ScoresRaw = raw
		}
	}
	if s := asMap(m["swot"]); s != nil {
		in.SWOTRaw = s
	}
	return in
}

func averageScore(scores ...*float64) *float64 {
	var sum float64
	var n int
	for _, s := range scores {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := NormalizeScore10(sum / float64(n))
	return &avg
}

// EvaluationTarget extracts what identifies the evaluated technology: any
// explicit identifiers, in priority order, and its name.
func EvaluationTarget(m map[string]any) (ids []string, name string) {
	for _, k := range []string{"shortlist_id", "shortlist_technology_id", "evaluation_id", "technology_id"} {
		if s := FirstString(m[k]); s != "" {
			ids = append(ids, s)
		}
	}
	name = FirstString(m["technology_name"], m["name"], m["technology"], m["title"])
	return ids, name
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
