package canon_test

import (
	"testing"

	"github.com/brennhill/replayverify/internal/canon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonKeyOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2}
	b := map[string]any{"a": 2, "b": 1}

	ca := canon.Canon(a)
	cb := canon.Canon(b)

	assert.Equal(t, canon.Encode(ca), canon.Encode(cb))
	assert.True(t, canon.Equal(ca, cb))
}

func TestCanonIdempotent(t *testing.T) {
	v := map[string]any{"x": []any{1, 2, map[string]any{"z": "y"}}}
	once := canon.Canon(v)
	twice := canon.Canon(once)
	assert.Equal(t, canon.Encode(once), canon.Encode(twice))
}

func TestCanonNullVsMissing(t *testing.T) {
	withNull := canon.Canon(map[string]any{"a": nil}).(canon.Map)
	withoutKey := canon.Canon(map[string]any{}).(canon.Map)

	_, hasNull := withNull["a"]
	_, hasMissing := withoutKey["a"]
	require.True(t, hasNull)
	require.False(t, hasMissing)
}

func TestCanonParsesLeadingBraceStringsOnly(t *testing.T) {
	obj := canon.Canon(`{"a":1}`)
	m, ok := obj.(canon.Map)
	require.True(t, ok, "expected JSON object string to parse")
	assert.Equal(t, float64(1), m["a"])

	plain := canon.Canon("just a string")
	assert.Equal(t, "just a string", plain)

	numericLooking := canon.Canon("12345")
	assert.Equal(t, "12345", numericLooking)
}

func TestCanonNumberValueEquality(t *testing.T) {
	assert.True(t, canon.Equal(canon.Canon(1.0), canon.Canon(1)))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, canon.KindObject, canon.KindOf(canon.Canon(map[string]any{})))
	assert.Equal(t, canon.KindArray, canon.KindOf(canon.Canon([]any{})))
	assert.Equal(t, canon.KindString, canon.KindOf(canon.Canon("x")))
	assert.Equal(t, canon.KindNumber, canon.KindOf(canon.Canon(1)))
	assert.Equal(t, canon.KindBool, canon.KindOf(canon.Canon(true)))
	assert.Equal(t, canon.KindNull, canon.KindOf(canon.Canon(nil)))
}
