package canon

import (
	"strconv"
	"strings"
)

// Encode produces a deterministic textual serialization of a canonical
// value: object keys in sorted order, no whitespace, numbers formatted
// with strconv so "1" and "1.0" agree. It underlies RequestHasher's
// requirement that key order and whitespace never affect the hash.
func Encode(v Value) string {
	var b strings.Builder
	encodeInto(&b, v)
	return b.String()
}

func encodeInto(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case Map:
		b.WriteByte('{')
		keys := t.Keys()
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, k)
			b.WriteByte(':')
			encodeInto(b, t[k])
		}
		b.WriteByte('}')
	case map[string]any:
		encodeInto(b, Canon(t))
	case []Value:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeInto(b, e)
		}
		b.WriteByte(']')
	case string:
		encodeString(b, t)
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		encodeInto(b, Canon(v))
	}
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
