package template_test

import (
	"testing"
	"time"

	"github.com/brennhill/replayverify/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) template.Clock {
	return func() time.Time { return t }
}

func fixedRandom(v int) template.RandSource {
	return func(min, max int) int { return v }
}

func TestConstantTemplateIdempotence(t *testing.T) {
	c := template.NewCompiler()
	value := map[string]any{"a": 1.0, "b": []any{"x", "y"}}
	tmpl, err := c.Compile(value)
	require.NoError(t, err)

	out, err := tmpl.Render(template.Context{"anything": 1})
	require.NoError(t, err)
	assert.Equal(t, value, out)
}

func TestLookupPlaceholder(t *testing.T) {
	c := template.NewCompiler()
	tmpl, err := c.Compile("{{request.params.id}}")
	require.NoError(t, err)

	out, err := tmpl.Render(template.Context{
		"request": map[string]any{"params": map[string]any{"id": "42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

// Scenario S6 — template rendering with path params.
func TestScenarioS6PathParamsAndRandom(t *testing.T) {
	c := template.NewCompiler().WithRandom(fixedRandom(55))
	tmpl, err := c.Compile(map[string]any{
		"id":    "{{request.params.id}}",
		"price": "{{random 10 100}}",
	})
	require.NoError(t, err)

	ctx := template.Context{"request": map[string]any{"params": map[string]any{"id": "42"}}}
	out, err := tmpl.Render(ctx)
	require.NoError(t, err)

	obj := out.(map[string]any)
	assert.Equal(t, "42", obj["id"])
	assert.Equal(t, "55", obj["price"])
}

func TestRandomHelperSoleNodeReturnsNumericString(t *testing.T) {
	c := template.NewCompiler().WithRandom(fixedRandom(7))
	tmpl, err := c.Compile("{{random 1 10}}")
	require.NoError(t, err)
	out, err := tmpl.Render(template.Context{})
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}

func TestConcatHelper(t *testing.T) {
	c := template.NewCompiler()
	tmpl, err := c.Compile(`{{concat "hello-" request.name}}`)
	require.NoError(t, err)
	out, err := tmpl.Render(template.Context{"request": map[string]any{"name": "world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", out)
}

func TestIfEqBlockHelper(t *testing.T) {
	c := template.NewCompiler()
	tmpl, err := c.Compile(`{{#if_eq request.method "GET"}}read{{else}}write{{/if_eq}}`)
	require.NoError(t, err)

	out, err := tmpl.Render(template.Context{"request": map[string]any{"method": "GET"}})
	require.NoError(t, err)
	assert.Equal(t, "read", out)

	out, err = tmpl.Render(template.Context{"request": map[string]any{"method": "POST"}})
	require.NoError(t, err)
	assert.Equal(t, "write", out)
}

func TestUUIDHelperProducesDistinctValues(t *testing.T) {
	c := template.NewCompiler()
	tmpl, err := c.Compile("{{uuid}}")
	require.NoError(t, err)
	a, _ := tmpl.Render(template.Context{})
	b, _ := tmpl.Render(template.Context{})
	assert.NotEqual(t, a, b)
}

func TestNowAndTimestampHelpersUseInjectedClock(t *testing.T) {
	fixed := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	c := template.NewCompiler().WithClock(fixedClock(fixed))

	nowTmpl, err := c.Compile("{{now}}")
	require.NoError(t, err)
	out, err := nowTmpl.Render(template.Context{})
	require.NoError(t, err)
	assert.Equal(t, fixed.Format(time.RFC3339Nano), out)

	tsTmpl, err := c.Compile("{{timestamp}}")
	require.NoError(t, err)
	out, err = tsTmpl.Render(template.Context{})
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), out)
}

func TestUnknownHelperIsRenderError(t *testing.T) {
	c := template.NewCompiler()
	tmpl, err := c.Compile("{{does_not_exist 1 2}}")
	require.NoError(t, err)
	_, err = tmpl.Render(template.Context{})
	assert.ErrorIs(t, err, template.ErrUnresolvedPlaceholder)
}

func TestFingerprintIsStableAndCacheHits(t *testing.T) {
	c := template.NewCompiler()
	t1, err := c.Compile(map[string]any{"a": "{{request.params.id}}"})
	require.NoError(t, err)
	t2, err := c.Compile(map[string]any{"a": "{{request.params.id}}"})
	require.NoError(t, err)
	assert.Equal(t, t1.Fingerprint(), t2.Fingerprint())
	assert.Same(t, t1, t2)
}
