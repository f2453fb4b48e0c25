// Package jsonutil provides defensive navigation over decoded JSON trees.
// Every accessor treats a missing key and a value of the wrong type the same
// way, so callers can chase optional branches without nil checks at each step.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// Normalize converts an in-memory JSON tree into plain map[string]any, []any
// and scalar form. json.RawMessage nodes are decoded in place; nodes of any
// other type are round-tripped through encoding/json so the result is always
// a plain tree regardless of what the caller spliced in.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(t, &decoded); err != nil {
			return nil, fmt.Errorf("decode raw node: %w", err)
		}
		return decoded, nil
	case string, bool, float64, json.Number:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("normalize %T node: %w", t, err)
		}
		var decoded any
		if err := json.Unmarshal(b, &decoded); err != nil {
			return nil, fmt.Errorf("normalize %T node: %w", t, err)
		}
		return decoded, nil
	}
}

// ToMap normalizes v and requires the result to be a JSON object.
func ToMap(v any) (map[string]any, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	m, ok := n.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", n)
	}
	return m, nil
}

// Object returns the object under key, or nil when the key is absent or
// holds a non-object value.
func Object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

// Array returns the array under key, or nil when the key is absent or holds
// a non-array value. A present empty array comes back non-nil.
func Array(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	arr, _ := m[key].([]any)
	return arr
}

// ObjectAt returns the object at index i, or nil when the index is out of
// range or the element is not an object.
func ObjectAt(a []any, i int) map[string]any {
	if i < 0 || i >= len(a) {
		return nil
	}
	obj, _ := a[i].(map[string]any)
	return obj
}

// OptString returns the string under key. A missing key and a non-string
// value both report false.
func OptString(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

// StringOr returns the string under key, or def when absent.
func StringOr(m map[string]any, key, def string) string {
	if s, ok := OptString(m, key); ok {
		return s
	}
	return def
}

// StringMap flattens a JSON object into string-to-string form. String values
// pass through, every other value is rendered as its JSON text.
func StringMap(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = FormatValue(v)
	}
	return out
}

// FormatValue renders a single JSON value the way it reads on the wire.
func FormatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return Serialize(v)
}

// Serialize returns the canonical JSON text for v, or "" when v cannot be
// marshaled.
func Serialize(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
