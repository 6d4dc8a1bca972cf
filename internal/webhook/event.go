// Package webhook turns research pipeline callbacks into session, finding,
// solution, longlist, evaluation and report rows.
package webhook

// Kind is the canonical event set. Wire names map onto it through aliases.
type Kind string

// Canonical event kinds.
const (
	KindSessionStart        Kind = "session_start"
	KindResearchProgress    Kind = "research_progress"
	KindSolutionsProgress   Kind = "solutions_progress"
	KindLonglistProgress    Kind = "longlist_progress"
	KindEvaluationProgress  Kind = "evaluation_progress"
	KindResearchComplete    Kind = "research_complete"
	KindSolutionsComplete   Kind = "solutions_complete"
	KindLonglistComplete    Kind = "longlist_complete"
	KindEvaluationComplete  Kind = "evaluation_complete"
	KindResearchFinding     Kind = "research_finding"
	KindSolutionIdentified  Kind = "solution_identified"
	KindTechnologyMatched   Kind = "technology_matched"
	KindTechnologyExtracted Kind = "technology_extracted"
	KindTechnologyEvaluated Kind = "technology_evaluated"
	KindContentExtracted    Kind = "content_extracted"
	KindError               Kind = "error"
	KindLog                 Kind = "log"
	KindUnknown             Kind = "unknown"
)

// Group is the coarse branch family a kind belongs to.
type Group int

// Event groups.
const (
	GroupUnknown Group = iota
	GroupLifecycle
	GroupProgress
	GroupCompletion
	GroupResult
	GroupError
	GroupLog
)

// aliases is the only place legacy wire names appear. The upstream sender
// renamed several events across versions and both spellings still arrive.
var aliases = map[string]Kind{
	"research_start":       KindSessionStart,
	"session_start":        KindSessionStart,
	"research_progress":    KindResearchProgress,
	"progress":             KindResearchProgress,
	"solutions_progress":   KindSolutionsProgress,
	"longlist_progress":    KindLonglistProgress,
	"evaluation_progress":  KindEvaluationProgress,
	"research_complete":    KindResearchComplete,
	"session_complete":     KindResearchComplete,
	"solutions_complete":   KindSolutionsComplete,
	"longlist_complete":    KindLonglistComplete,
	"evaluation_complete":  KindEvaluationComplete,
	"evaluation_completed": KindEvaluationComplete,
	"research_finding":     KindResearchFinding,
	"research_found":       KindResearchFinding,
	"solution_identified":  KindSolutionIdentified,
	"technology_matched":   KindTechnologyMatched,
	"technology_extracted": KindTechnologyExtracted,
	"technology_found":     KindTechnologyExtracted,
	"technology_evaluated": KindTechnologyEvaluated,
	"content_extracted":    KindContentExtracted,
	"error":                KindError,
	"log":                  KindLog,
}

// Classify maps a wire event name onto its canonical kind. Matching is exact.
func Classify(event string) Kind {
	if k, ok := aliases[event]; ok {
		return k
	}
	return KindUnknown
}

// Aliases returns every wire name that maps onto k.
func Aliases(k Kind) []string {
	var names []string
	for name, kind := range aliases {
		if kind == k {
			names = append(names, name)
		}
	}
	return names
}

// Group returns the branch family for k.
func (k Kind) Group() Group {
	switch k {
	case KindSessionStart:
		return GroupLifecycle
	case KindResearchProgress, KindSolutionsProgress, KindLonglistProgress, KindEvaluationProgress:
		return GroupProgress
	case KindResearchComplete, KindSolutionsComplete, KindLonglistComplete, KindEvaluationComplete:
		return GroupCompletion
	case KindResearchFinding, KindSolutionIdentified, KindTechnologyMatched,
		KindTechnologyExtracted, KindTechnologyEvaluated, KindContentExtracted:
		return GroupResult
	case KindError:
		return GroupError
	case KindLog:
		return GroupLog
	default:
		return GroupUnknown
	}
}

// DefaultPhase is the phase recorded when the payload carries none.
func (k Kind) DefaultPhase() string {
	switch k {
	case KindSessionStart, KindResearchProgress, KindResearchComplete,
		KindResearchFinding, KindContentExtracted:
		return "research"
	case KindSolutionsProgress, KindSolutionsComplete, KindSolutionIdentified:
		return "solutions"
	case KindLonglistProgress, KindLonglistComplete, KindTechnologyMatched, KindTechnologyExtracted:
		return "longlist"
	case KindEvaluationProgress, KindEvaluationComplete, KindTechnologyEvaluated:
		return "evaluation"
	default:
		return ""
	}
}
