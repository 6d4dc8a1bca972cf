package webhook

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/jonathan/scout-webhook/internal/db"
)

// ResolveShortlist finds the shortlist entry an evaluation refers to.
//
// Explicit identifiers win when one matches an entry id or its longlist id.
// Otherwise the name is matched case-insensitively: a unique exact match
// resolves, then a unique match where the name contains the entry name or the
// entry name appears in the name as whole words. Zero matches
// return ErrUnresolvedEvaluation and several return ErrAmbiguousEvaluation.
func ResolveShortlist(entries []db.ShortlistEntry, ids []string, name string) (*db.ShortlistEntry, error) {
	for _, id := range ids {
		want := strings.ToLower(strings.TrimSpace(id))
		for i := range entries {
			e := &entries[i]
			if e.ID.String() == want || (e.LonglistID != nil && e.LonglistID.String() == want) {
				return e, nil
			}
		}
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("%w: no identifier or name", ErrUnresolvedEvaluation)
	}

	var exact, partial []*db.ShortlistEntry
	for i := range entries {
		e := &entries[i]
		hay := strings.ToLower(strings.TrimSpace(e.TechnologyName))
		if hay == "" {
			continue
		}
		switch {
		case hay == needle:
			exact = append(exact, e)
		case strings.Contains(hay, needle), containsWords(needle, hay):
			partial = append(partial, e)
		}
	}

	switch {
	case len(exact) == 1:
		return exact[0], nil
	case len(exact) > 1:
		return nil, fmt.Errorf("%w: %q matches %d entries exactly", ErrAmbiguousEvaluation, name, len(exact))
	case len(partial) == 1:
		return partial[0], nil
	case len(partial) > 1:
		return nil, fmt.Errorf("%w: %q matches %d entries", ErrAmbiguousEvaluation, name, len(partial))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedEvaluation, name)
	}
}

// containsWords reports whether phrase occurs in text as a run of whole words,
// so a short entry like "UV" does not match inside "Fluvial".
func containsWords(text, phrase string) bool {
	words := wordsOf(text)
	want := wordsOf(phrase)
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		if slices.Equal(words[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func wordsOf(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
