package differ_test

import (
	"testing"

	"github.com/brennhill/replayverify/internal/differ"
	"github.com/brennhill/replayverify/internal/tolerance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario S1 — count field removed, default tolerances.
func TestScenarioS1CountFieldRemoved(t *testing.T) {
	recorded := map[string]any{
		"products": []any{map[string]any{"id": float64(1)}},
		"count":    float64(1),
	}
	replayed := map[string]any{
		"products": []any{map[string]any{"id": float64(1), "inStock": true}},
	}

	result := differ.Compare(nil, recorded, replayed)

	require.Len(t, result.Removed, 1)
	assert.Equal(t, "count", result.Removed[0].Path)
	assert.Equal(t, "Field was removed", result.Removed[0].Reason)

	require.Len(t, result.Added, 1)
	assert.Equal(t, "products[0].inStock", result.Added[0].Path)
}

// Scenario S3 — type change.
func TestScenarioS3TypeChange(t *testing.T) {
	recorded := map[string]any{"description": "x"}
	replayed := map[string]any{"description": map[string]any{"short": "x"}}

	result := differ.Compare(nil, recorded, replayed)

	require.Len(t, result.TypeChanged, 1)
	assert.Equal(t, "description", result.TypeChanged[0].Path)
	assert.Equal(t, "Type changed from string to object", result.TypeChanged[0].Reason)
}

// Scenario S4 — UUID normalization, tolerant mode.
func TestScenarioS4UUIDNormalization(t *testing.T) {
	tol := tolerance.TolerantDefaults()
	recorded := map[string]any{"id": "550e8400-e29b-41d4-a716-446655440000"}
	replayed := map[string]any{"id": "123e4567-e89b-12d3-a456-426614174000"}

	result := differ.Compare(&tol, recorded, replayed)

	assert.Empty(t, result.Modified)
	require.Len(t, result.Tolerated, 1)
	assert.Equal(t, 0, result.Total())
}

func TestAdditionsAreNotRemovals(t *testing.T) {
	result := differ.Compare(nil, map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2})
	assert.Empty(t, result.Removed)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "b", result.Added[0].Path)
}

func TestIgnoredFieldNeverProducesADiff(t *testing.T) {
	tol := tolerance.Config{IgnoreFields: []string{"count"}}
	recorded := map[string]any{"count": float64(1), "x": float64(1)}
	replayed := map[string]any{"x": float64(1)}

	result := differ.Compare(&tol, recorded, replayed)
	assert.Equal(t, 0, result.Total())
	assert.Empty(t, result.Tolerated)
}

func TestRedactedFieldsNeverDiff(t *testing.T) {
	recorded := map[string]any{"token": "[REDACTED]"}
	replayed := map[string]any{"token": "[REDACTED]"}
	result := differ.Compare(nil, recorded, replayed)
	assert.Equal(t, 0, result.Total())
}

func TestArraySortToleranceReordersBeforeDiffing(t *testing.T) {
	tol := tolerance.Config{SortArrays: true}
	recorded := map[string]any{"tags": []any{"a", "b"}}
	replayed := map[string]any{"tags": []any{"b", "a"}}

	result := differ.Compare(&tol, recorded, replayed)
	assert.Equal(t, 0, result.Total())
}

func TestDeterministicOrdering(t *testing.T) {
	recorded := map[string]any{"b": 1, "a": 1, "c": 1}
	replayed := map[string]any{}

	r1 := differ.Compare(nil, recorded, replayed)
	r2 := differ.Compare(nil, recorded, replayed)
	require.Equal(t, len(r1.Removed), len(r2.Removed))
	for i := range r1.Removed {
		assert.Equal(t, r1.Removed[i].Path, r2.Removed[i].Path)
	}
	assert.Equal(t, []string{"a", "b", "c"}, []string{r1.Removed[0].Path, r1.Removed[1].Path, r1.Removed[2].Path})
}
