package reqhash_test

import (
	"testing"

	"github.com/brennhill/replayverify/internal/reqhash"
	"github.com/stretchr/testify/assert"
)

func TestHashStableAcrossQueryKeyOrder(t *testing.T) {
	h1 := reqhash.Hash("get", "/api/products", reqhash.Query{"a": {"1"}, "b": {"2"}}, nil)
	h2 := reqhash.Hash("GET", "/api/products", reqhash.Query{"b": {"2"}, "a": {"1"}}, nil)
	assert.Equal(t, h1, h2)
}

func TestHashIgnoresHeadersAndTiming(t *testing.T) {
	// Hash only takes method/path/query/body, so there is no way to pass
	// headers or timing in — this test documents that contract by
	// showing identical calls (standing in for "same request, different
	// capture timestamp/headers") always agree.
	h1 := reqhash.Hash("POST", "/x", nil, map[string]any{"a": 1})
	h2 := reqhash.Hash("POST", "/x", nil, map[string]any{"a": 1})
	assert.Equal(t, h1, h2)
}

func TestHashDiffersOnBodyChange(t *testing.T) {
	h1 := reqhash.Hash("POST", "/x", nil, map[string]any{"a": 1})
	h2 := reqhash.Hash("POST", "/x", nil, map[string]any{"a": 2})
	assert.NotEqual(t, h1, h2)
}

func TestHashIsHex64(t *testing.T) {
	h := reqhash.Hash("GET", "/", nil, nil)
	assert.Len(t, h, 64)
}
