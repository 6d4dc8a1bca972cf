package webhook

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/scout-webhook/internal/db"
)

// DefaultRelevance is used when a finding carries no usable score.
const DefaultRelevance = 3

// objectObject is what a JavaScript sender produces when it stringifies an
// object by accident. It is never written back out.
const objectObject = "[object Object]"

// sourceTypeSynonyms maps free-text source types onto the closed set.
var sourceTypeSynonyms = map[string]string{
	db.SourceTypePaper:   db.SourceTypePaper,
	db.SourceTypeReport:  db.SourceTypeReport,
	db.SourceTypeArticle: db.SourceTypeArticle,
	db.SourceTypePatent:  db.SourceTypePatent,
	db.SourceTypeWebsite: db.SourceTypeWebsite,
	db.SourceTypeOther:   db.SourceTypeOther,
	"web":                db.SourceTypeWebsite,
	"url":                db.SourceTypeWebsite,
	"link":               db.SourceTypeWebsite,
	"blog":               db.SourceTypeArticle,
	"news":               db.SourceTypeArticle,
	"journal":            db.SourceTypePaper,
	"study":              db.SourceTypePaper,
	"doc":                db.SourceTypeReport,
	"document":           db.SourceTypeReport,
}

// SourceTypeSynonyms returns a copy of the source type table.
func SourceTypeSynonyms() map[string]string {
	out := make(map[string]string, len(sourceTypeSynonyms))
	for k, v := range sourceTypeSynonyms {
		out[k] = v
	}
	return out
}

// NormalizeSourceType maps a free-text source type onto paper, report,
// article, patent, website or other. Unknown values become other.
func NormalizeSourceType(s string) string {
	if v, ok := sourceTypeSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return db.SourceTypeOther
}

// InferSourceTypeFromURL guesses a source type from a URL pattern.
func InferSourceTypeFromURL(rawURL string) string {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "patent"):
		return db.SourceTypePatent
	case strings.Contains(u, "doi.org"):
		return db.SourceTypePaper
	default:
		return db.SourceTypeWebsite
	}
}

// HostOf returns the URL host without a leading "www.", or "" if unparseable.
func HostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// NormalizeRelevanceScore maps a 1-5 or 0-100 score onto an integer in [1,5].
// Values above 5 are treated as percentages and divided by 20.
func NormalizeRelevanceScore(v float64) int {
	if math.IsNaN(v) {
		return DefaultRelevance
	}
	if v > 5 {
		v = v / 20
	}
	return clampInt(int(math.Round(v)), 1, 5)
}

// RelevanceFrom normalizes any JSON value as a relevance score.
func RelevanceFrom(v any) int {
	f, ok := toFloat(v)
	if !ok {
		return DefaultRelevance
	}
	return NormalizeRelevanceScore(f)
}

// NormalizeScore10 maps a 0-10 or 0-100 score onto [0,10] with one decimal.
func NormalizeScore10(v float64) float64 {
	if v > 10 {
		v = v / 10
	}
	return math.Round(clampFloat(v, 0, 10)*10) / 10
}

// Score10From normalizes any JSON value as a 0-10 score; nil when absent.
func Score10From(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	s := NormalizeScore10(f)
	return &s
}

// ConfidenceFrom maps a 0-1 or 0-100 confidence onto [0,1]; nil when absent.
func ConfidenceFrom(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	if f > 1 {
		f = f / 100
	}
	c := math.Round(clampFloat(f, 0, 1)*1000) / 1000
	return &c
}

var firstInt = regexp.MustCompile(`\d+`)

// TRLFrom reads a readiness level from numbers or strings like "TRL 6" or
// "6-7" (first number wins), clamped to [1,9]. Nil when absent.
func TRLFrom(v any) *int {
	f, ok := toFloat(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return nil
		}
		m := firstInt.FindString(s)
		if m == "" {
			return nil
		}
		f, _ = toFloat(m)
	}
	if f <= 0 {
		return nil
	}
	trl := clampInt(int(math.Round(f)), 1, 9)
	return &trl
}

// TRLRangeFrom renders a readiness range given as "4-6", [4,6], {min,max} or a
// single number.
func TRLRangeFrom(v any) string {
	switch t := v.(type) {
	case map[string]any:
		lo := FirstString(t["min"], t["from"], t["low"])
		hi := FirstString(t["max"], t["to"], t["high"])
		return joinRange(lo, hi)
	case []any:
		if len(t) == 0 {
			return ""
		}
		lo := scalarString(t[0])
		hi := scalarString(t[len(t)-1])
		return joinRange(lo, hi)
	default:
		return strings.TrimSpace(scalarString(v))
	}
}

func joinRange(lo, hi string) string {
	switch {
	case lo == "" && hi == "":
		return ""
	case lo == "" || lo == hi:
		return hi
	case hi == "":
		return lo
	default:
		return lo + "-" + hi
	}
}

// PriorityFrom reads a priority as a number or high/medium/low.
func PriorityFrom(v any) *int {
	if f, ok := toFloat(v); ok {
		p := int(math.Round(f))
		return &p
	}
	var p int
	switch strings.ToLower(strings.TrimSpace(scalarString(v))) {
	case "high", "critical":
		p = 1
	case "medium", "normal":
		p = 2
	case "low":
		p = 3
	default:
		return nil
	}
	return &p
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// StringList coerces a list-ish value into strings. Newline-separated text is
// split into items; objects are rendered with TextOf.
func StringList(v any) []string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		var out []string
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			if line != "" && line != objectObject {
				out = append(out, line)
			}
		}
		return out
	}
	list := asList(v)
	if list == nil {
		if t := TextOf(v); t != "" {
			return []string{t}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if t := TextOf(item); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// textKeys and detailKeys are tried in order when rendering an object.
var (
	textKeys   = []string{"name", "technology_name", "technology", "title", "option", "label"}
	detailKeys = []string{"reason", "rationale", "description", "justification", "summary", "details", "text"}
)

// TextOf renders any JSON value as readable text. Objects become
// "name: reason" from well-known keys, falling back to compact JSON, so the
// output never contains "[object Object]".
func TextOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(strings.ReplaceAll(t, objectObject, ""))
	case map[string]any:
		return objectText(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := TextOf(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		if s := scalarString(v); s != "" {
			return s
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func objectText(m map[string]any) string {
	name := ""
	for _, k := range textKeys {
		if s := TextOf(m[k]); s != "" && !isComposite(m[k]) {
			name = s
			break
		}
	}
	detail := ""
	for _, k := range detailKeys {
		if s := TextOf(m[k]); s != "" {
			detail = s
			break
		}
	}
	switch {
	case name != "" && detail != "":
		return name + ": " + detail
	case name != "":
		return name
	case detail != "":
		return detail
	case len(m) == 0:
		return ""
	}

	// No well-known keys: render remaining scalars deterministically.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := TextOf(m[k]); s != "" {
			parts = append(parts, k+": "+s)
		}
	}
	return strings.Join(parts, ", ")
}

func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}
