package rcontext_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brennhill/replayverify/internal/rcontext"
	"github.com/brennhill/replayverify/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultContextShape(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cb := rcontext.New(rcontext.WithClock(func() time.Time { return fixed }))

	ctx := cb.Build(rcontext.RequestInfo{
		Method: "GET",
		Path:   "/api/products/42",
		Query:  map[string][]string{"q": {"x"}},
		Params: map[string]string{"id": "42"},
		Body:   nil,
	})

	req := ctx["request"].(map[string]any)
	assert.Equal(t, "GET", req["method"])
	assert.Equal(t, "/api/products/42", req["path"])
	assert.Equal(t, "42", req["params"].(map[string]any)["id"])
	assert.Equal(t, fixed.UnixMilli(), ctx["timestamp"])

	random := ctx["random"].(map[string]any)
	assert.NotEmpty(t, random["uuid"])
}

func TestRegisteredBuildersMergeInOrderLaterWins(t *testing.T) {
	cb := rcontext.New()
	cb.Register("first", func(base template.Context) (template.Context, error) {
		return template.Context{"custom": "a", "only_first": true}, nil
	})
	cb.Register("second", func(base template.Context) (template.Context, error) {
		return template.Context{"custom": "b"}, nil
	})

	ctx := cb.Build(rcontext.RequestInfo{Method: "GET", Path: "/x"})
	assert.Equal(t, "b", ctx["custom"])
	assert.Equal(t, true, ctx["only_first"])
}

func TestFailingBuilderIsSkippedNotFatal(t *testing.T) {
	cb := rcontext.New()
	cb.Register("broken", func(base template.Context) (template.Context, error) {
		return nil, errors.New("boom")
	})
	cb.Register("ok", func(base template.Context) (template.Context, error) {
		return template.Context{"survived": true}, nil
	})

	require.NotPanics(t, func() {
		ctx := cb.Build(rcontext.RequestInfo{Method: "GET", Path: "/x"})
		assert.Equal(t, true, ctx["survived"])
	})
}

func TestBuilderCanSeeDefaultsAlreadyMerged(t *testing.T) {
	cb := rcontext.New()
	var sawMethod string
	cb.Register("reader", func(base template.Context) (template.Context, error) {
		req := base["request"].(map[string]any)
		sawMethod = req["method"].(string)
		return nil, nil
	})

	cb.Build(rcontext.RequestInfo{Method: "POST", Path: "/x"})
	assert.Equal(t, "POST", sawMethod)
}
