// golden_test.go — golden-file regression coverage for the structural
// differ's emitted Result shape, grounded on the teacher's
// internal/reproduction/golden_test.go UPDATE_GOLDEN pattern.
package differ_test

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/brennhill/replayverify/internal/differ"
	"github.com/brennhill/replayverify/internal/tolerance"
)

var updateGolden = os.Getenv("UPDATE_GOLDEN") == "1"

func assertGolden(t *testing.T, path string, actual []byte) {
	t.Helper()
	if updateGolden {
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			t.Fatalf("write golden %s: %v", path, err)
		}
		t.Logf("updated golden file %s (%d bytes)", path, len(actual))
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden %s (run with UPDATE_GOLDEN=1 first): %v", path, err)
	}
	if !bytes.Equal(want, actual) {
		t.Errorf("golden mismatch for %s", path)
		t.Errorf("want:\n%s", want)
		t.Errorf("got:\n%s", actual)
		t.Fatalf("run with UPDATE_GOLDEN=1 to update golden files")
	}
}

func TestGoldenCompareMixedDivergence(t *testing.T) {
	recorded := map[string]any{
		"id":        "42",
		"name":      "widget",
		"createdAt": "2024-01-01T00:00:00Z",
		"price":     9.99,
		"tags":      []any{"a", "b"},
		"legacy":    "gone-soon",
	}
	replayed := map[string]any{
		"id":        "42",
		"name":      "widget-v2",
		"createdAt": "2024-01-01T00:00:02Z",
		"price":     "9.99",
		"tags":      []any{"a", "b", "c"},
	}

	tol := tolerance.TolerantDefaults()
	result := differ.Compare(&tol, recorded, replayed)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	assertGolden(t, "testdata/compare-mixed-divergence.golden.json", data)
}

func TestGoldenCompareStrictModeNoTolerance(t *testing.T) {
	recorded := map[string]any{"id": "1", "name": "widget"}
	replayed := map[string]any{"id": "1", "name": "widget", "extra": true}

	result := differ.Compare(nil, recorded, replayed)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	assertGolden(t, "testdata/compare-strict-addition.golden.json", data)
}
