// Package canon implements order-independent normalization of structured
// values so that hashing and diffing never depend on map key order or
// incidental string encoding.
//
// Canonicalization is recursive and total: every value accepted by
// encoding/json.Unmarshal into any, plus the handful of extra scalar
// kinds Go code builds in memory (int, int64, float32, ...), normalizes
// without error.
package canon

import (
	"sort"
	"strings"
)

// Value is the canonical representation of a structured value:
//   - Map for JSON objects, with keys kept in sorted order by Keys()
//   - Slice ([]Value) for JSON arrays, recursed element-wise
//   - string, float64, bool, nil for JSON scalars
//
// Canon does not sort slices — ordering of arrays is the tolerance
// engine's job (see internal/tolerance), since default semantics
// preserve order.
type Value = any

// Map is a canonicalized JSON object. Iteration order is undefined;
// use Keys for a stable, sorted key list.
type Map map[string]Value

// Keys returns m's keys sorted lexicographically.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Canon normalizes v into its canonical form. It never fails: unknown
// concrete types fall back to being treated as opaque scalars.
func Canon(v any) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = Canon(val)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = Canon(val)
		}
		return out
	case []any:
		out := make([]Value, len(t))
		for i, val := range t {
			out[i] = Canon(val)
		}
		return out
	case string:
		if parsed, ok := maybeParseJSON(t); ok {
			return Canon(parsed)
		}
		return t
	case bool, float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return canonReflect(v)
	}
}

// maybeParseJSON parses s as JSON only when its leading non-space
// character is '{' or '[', per spec §4.A: strings that merely look like
// JSON numbers or quoted strings are left alone.
func maybeParseJSON(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, false
	}
	switch trimmed[0] {
	case '{', '[':
	default:
		return nil, false
	}
	return decodeJSON(trimmed)
}

// Kind classifies a canonical value's runtime type category, used by
// the differ to detect type changes (object vs sequence vs string vs
// number vs boolean vs null).
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// KindOf classifies an already-canonicalized value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case Map:
		return KindObject
	case map[string]any:
		return KindObject
	case []Value:
		return KindArray
	case string:
		return KindString
	case float64:
		return KindNumber
	case bool:
		return KindBool
	default:
		return KindOther
	}
}

// Equal reports whether two canonical values are structurally
// identical (value comparison, not textual — per spec §4.A numbers
// compare by value).
func Equal(a, b Value) bool {
	ak, bk := KindOf(a), KindOf(b)
	if ak != bk {
		return false
	}
	switch ak {
	case KindNull:
		return true
	case KindObject:
		ma, mb := asMap(a), asMap(b)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case KindArray:
		sa, sb := a.([]Value), b.([]Value)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !Equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		return a.(float64) == b.(float64)
	case KindBool:
		return a.(bool) == b.(bool)
	default:
		return a == b
	}
}

func asMap(v Value) Map {
	switch t := v.(type) {
	case Map:
		return t
	case map[string]any:
		m := make(Map, len(t))
		for k, val := range t {
			m[k] = val
		}
		return m
	default:
		return nil
	}
}
