package normalization

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source mappings follow the xmltodict convention: attributes are keys
// prefixed with "@", element text sits under "#text".
const (
	attrPrefix = "@"
	textKey    = "#text"
)

type shape int

const (
	shapeUnknown shape = iota
	shapeScalar
	shapeMapping
	shapeSequence
)

func (s shape) String() string {
	switch s {
	case shapeScalar:
		return "scalar"
	case shapeMapping:
		return "mapping"
	case shapeSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

func shapeOf(v any) shape {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return shapeScalar
	case map[string]any:
		return shapeMapping
	case []any, []map[string]any, []string:
		return shapeSequence
	default:
		return shapeUnknown
	}
}

// asSequence coerces a single occurrence to a one-element sequence so
// callers never branch on singular vs plural. nil yields nil.
func asSequence(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []map[string]any:
		out := make([]any, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out
	case []string:
		out := make([]any, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	default:
		return []any{v}
	}
}

func asMapping(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// text extracts element text from either a bare scalar or a mapping that
// carries attributes next to "#text".
func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case map[string]any:
		return text(t[textKey])
	default:
		if shapeOf(v) == shapeScalar {
			return strings.TrimSpace(fmt.Sprint(t)), true
		}
		return "", false
	}
}

// scalarValue is text() without stringifying numbers.
func scalarValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return scalarValue(t[textKey])
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		if shapeOf(v) == shapeScalar {
			return v
		}
		return nil
	}
}

func attr(m map[string]any, name string) string {
	if m == nil {
		return ""
	}
	s, _ := text(m[attrPrefix+name])
	return s
}

func child(m map[string]any, name string) string {
	if m == nil {
		return ""
	}
	s, _ := text(m[name])
	return s
}

// joinTexts flattens a single-or-list of text values.
func joinTexts(v any, sep string) string {
	parts := []string{}
	for _, item := range asSequence(v) {
		if s, ok := text(item); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
