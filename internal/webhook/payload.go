package webhook

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Payload is a decoded webhook body. The upstream schema is loose: fields may
// sit at the top level or under "data", depending on the sender version.
type Payload struct {
	Raw       map[string]any
	Data      map[string]any
	Event     string
	SessionID string
	StudyID   string
}

// NewPayload wraps a decoded JSON object.
func NewPayload(raw map[string]any) *Payload {
	if raw == nil {
		raw = map[string]any{}
	}
	data := asMap(raw["data"])
	if data == nil {
		data = map[string]any{}
	}
	return &Payload{
		Raw:       raw,
		Data:      data,
		Event:     scalarString(raw["event"]),
		SessionID: scalarString(raw["session_id"]),
		StudyID:   FirstString(raw["study_id"], data["study_id"]),
	}
}

// Lookup returns key from data, falling back to the top level.
func (p *Payload) Lookup(key string) any {
	return FirstDefined(p.Data[key], p.Raw[key])
}

// Progress reads progress from the top level first, then data.progress and
// data.percentage, clamped to [0,100]. Missing or unparseable values give 0.
func (p *Payload) Progress() int {
	v, ok := toFloat(FirstDefined(p.Raw["progress"], p.Data["progress"], p.Data["percentage"]))
	if !ok {
		return 0
	}
	return clampInt(int(math.Round(v)), 0, 100)
}

// Phase reads phase from the top level first, then data.
func (p *Payload) Phase(def string) string {
	if s := FirstString(p.Raw["phase"], p.Data["phase"], p.Data["current_phase"]); s != "" {
		return s
	}
	return def
}

// Message reads a human-readable message from the top level first, then data.
func (p *Payload) Message() string {
	return FirstString(p.Raw["message"], p.Data["message"])
}

// Object returns the first of keys that holds an object, or the flat data
// object when none do (the top level if data is empty). Result branches use
// it to accept both nested and flat shapes.
func (p *Payload) Object(keys ...string) map[string]any {
	for _, k := range keys {
		if m := asMap(p.Lookup(k)); m != nil {
			return m
		}
	}
	if len(p.Data) == 0 {
		return p.Raw
	}
	return p.Data
}

// Items returns the object elements of the first list found under keys.
func (p *Payload) Items(keys ...string) []map[string]any {
	for _, k := range keys {
		list := asList(p.Lookup(k))
		if list == nil {
			continue
		}
		items := make([]map[string]any, 0, len(list))
		for _, v := range list {
			if m := asMap(v); m != nil {
				items = append(items, m)
			}
		}
		return items
	}
	return nil
}

// FirstDefined returns the first non-nil value.
func FirstDefined(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// FirstString returns the first value that renders as a non-empty scalar string.
func FirstString(values ...any) string {
	for _, v := range values {
		if s := strings.TrimSpace(scalarString(v)); s != "" {
			return s
		}
	}
	return ""
}

// scalarString renders strings and numbers; other shapes give "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// toFloat accepts JSON numbers and numeric strings such as "85" or "85%".
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "%"))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// truthy interprets booleans, "true"/"yes"/"1" strings and non-zero numbers.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
