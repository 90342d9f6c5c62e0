package template

import "strconv"

// Context is the render-time environment placeholders resolve against.
// Dotted paths (e.g. "request.params.id") are resolved via Lookup.
type Context map[string]any

// Lookup resolves a dotted path against the context. It returns
// (nil, false) when any segment along the path is missing, rather than
// erroring — a lookup used as a helper or block argument resolves to
// nil, while a placeholder that is itself an unresolved lookup, or an
// unknown helper name, fails with ErrUnresolvedPlaceholder (spec §7).
func Lookup(ctx Context, path string) (any, bool) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, false
	}
	var cur any = map[string]any(ctx)
	for _, seg := range segments {
		m, ok := asMapAny(cur)
		if !ok {
			return nil, false
		}
		if idx, isIndex := arrayIndex(seg); isIndex {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
			continue
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asMapAny(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Context:
		return map[string]any(t), true
	default:
		return nil, false
	}
}

func arrayIndex(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
