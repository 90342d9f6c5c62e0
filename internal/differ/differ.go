// Package differ implements the structural differ (spec §4.D): a
// depth-first, sorted-key walk over two canonicalized trees that emits
// a tagged-variant diff record for every divergence, applying the
// tolerance engine before a difference is ever recorded.
//
// This replaces the "ad-hoc tagged-object diffs" pattern spec §9 calls
// out (a `{kind: 'N'|'D'|'E'|'A'}` object) with an exhaustive Go sum
// type (Kind + a switch in every consumer), grounded on
// other_examples' Kong-go-database-reconciler pkg/diff/diff.go, which
// diffs arbitrary nested config trees the same way.
package differ

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/brennhill/replayverify/internal/canon"
	"github.com/brennhill/replayverify/internal/tolerance"
)

// Kind tags the category of a single difference.
type Kind int

const (
	// Added marks a key present only on the replayed side.
	Added Kind = iota
	// Removed marks a key present only on the recorded side. Always an
	// incompatibility.
	Removed
	// Modified marks differing leaf values at the same path.
	Modified
	// TypeChanged marks a Modified diff where the runtime type category
	// differs. Always an incompatibility.
	TypeChanged
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	case TypeChanged:
		return "typeChanged"
	default:
		return "unknown"
	}
}

// MarshalJSON renders Kind as its string name rather than the
// underlying int, so a report's embedded diffs read the same way the
// rest of the document names diff kinds (spec §7).
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Diff is one emitted difference record.
type Diff struct {
	Kind     Kind   `json:"kind"`
	Path     string `json:"path"`
	Recorded any    `json:"recorded,omitempty"`
	Replayed any    `json:"replayed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Result is the full outcome of comparing two values: diffs that
// count toward the breaking-change tally, plus diffs that were
// detected but tolerated (and so don't count).
type Result struct {
	Added       []Diff `json:"added,omitempty"`
	Removed     []Diff `json:"removed,omitempty"`
	Modified    []Diff `json:"modified,omitempty"`
	TypeChanged []Diff `json:"typeChanged,omitempty"`
	Tolerated   []Diff `json:"tolerated,omitempty"`
}

// Total returns the count of non-tolerated diffs.
func (r Result) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified) + len(r.TypeChanged)
}

// Compare walks recorded and replayed (arbitrary structured values,
// canonicalized internally) and produces a Result. tol may be nil,
// equivalent to tolerance.Strict().
func Compare(tol *tolerance.Config, recorded, replayed any) Result {
	if tol == nil {
		z := tolerance.Strict()
		tol = &z
	}
	w := &walker{tol: tol}
	w.walk("", canon.Canon(recorded), canon.Canon(replayed))
	sortDiffs(w.result.Added)
	sortDiffs(w.result.Removed)
	sortDiffs(w.result.Modified)
	sortDiffs(w.result.TypeChanged)
	sortDiffs(w.result.Tolerated)
	return w.result
}

type walker struct {
	tol    *tolerance.Config
	result Result
}

func sortDiffs(d []Diff) {
	sort.SliceStable(d, func(i, j int) bool { return d[i].Path < d[j].Path })
}

// walk recurses depth-first; object keys are visited in sorted order so
// output is deterministic for identical inputs (spec §4.D).
func (w *walker) walk(path string, recorded, replayed any) {
	if w.tol.IsIgnored(path) {
		return
	}
	if tolerance.IsRedacted(recorded) || tolerance.IsRedacted(replayed) {
		return
	}

	rk, pk := canon.KindOf(recorded), canon.KindOf(replayed)

	switch {
	case rk == canon.KindNull && pk == canon.KindNull:
		return
	case rk == canon.KindObject && pk == canon.KindObject:
		w.walkObject(path, recorded.(canon.Map), replayed.(canon.Map))
		return
	case rk == canon.KindArray && pk == canon.KindArray:
		w.walkArray(path, recorded.([]canon.Value), replayed.([]canon.Value))
		return
	}

	if rk != pk {
		w.emitTypeChanged(path, recorded, replayed, rk, pk)
		return
	}

	if !canon.Equal(recorded, replayed) {
		w.emitModified(path, recorded, replayed)
	}
}

func (w *walker) walkObject(path string, recorded, replayed canon.Map) {
	keys := make(map[string]struct{}, len(recorded)+len(replayed))
	for k := range recorded {
		keys[k] = struct{}{}
	}
	for k := range replayed {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		childPath := joinPath(path, k)
		if w.tol.IsIgnored(childPath) {
			continue
		}
		rv, rok := recorded[k]
		pv, pok := replayed[k]
		switch {
		case rok && !pok:
			w.emitRemoved(childPath, rv)
		case !rok && pok:
			w.emitAdded(childPath, pv)
		default:
			w.walk(childPath, rv, pv)
		}
	}
}

func (w *walker) walkArray(path string, recorded, replayed []canon.Value) {
	if w.tol.ShouldSortArray(path) {
		recorded = sortedCopy(recorded)
		replayed = sortedCopy(replayed)
	}

	n := len(recorded)
	if len(replayed) > n {
		n = len(replayed)
	}
	for i := 0; i < n; i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		var rv, pv any
		rHas, pHas := i < len(recorded), i < len(replayed)
		if rHas {
			rv = recorded[i]
		}
		if pHas {
			pv = replayed[i]
		}
		switch {
		case rHas && !pHas:
			w.emitRemoved(elemPath, rv)
		case !rHas && pHas:
			w.emitAdded(elemPath, pv)
		default:
			w.walk(elemPath, rv, pv)
		}
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func (w *walker) emitAdded(path string, value any) {
	w.result.Added = append(w.result.Added, Diff{Kind: Added, Path: path, Replayed: value})
}

func (w *walker) emitRemoved(path string, value any) {
	d := Diff{Kind: Removed, Path: path, Recorded: value, Reason: "Field was removed"}
	w.result.Removed = append(w.result.Removed, d)
}

func (w *walker) emitTypeChanged(path string, recorded, replayed any, rk, pk canon.Kind) {
	d := Diff{
		Kind:     TypeChanged,
		Path:     path,
		Recorded: recorded,
		Replayed: replayed,
		Reason:   fmt.Sprintf("Type changed from %s to %s", rk, pk),
	}
	w.result.TypeChanged = append(w.result.TypeChanged, d)
}

func (w *walker) emitModified(path string, recorded, replayed any) {
	d := Diff{Kind: Modified, Path: path, Recorded: recorded, Replayed: replayed}

	key := lastSegment(path)
	if w.tol.IsUUID(key, recorded) && w.tol.IsUUID(key, replayed) {
		if w.tol.IgnoreUUIDs {
			w.result.Tolerated = append(w.result.Tolerated, d)
			return
		}
	}
	if w.tol.IsTimestamp(key, recorded, nowMillisFallback(replayed)) && w.tol.IsTimestamp(key, replayed, nowMillisFallback(recorded)) {
		if w.tol.TimestampsEquivalent(recorded, replayed) {
			w.result.Tolerated = append(w.result.Tolerated, d)
			return
		}
	}

	w.result.Modified = append(w.result.Modified, d)
}

// nowMillisFallback supplies an upper bound for the plausible-epoch
// check when classifying a numeric timestamp: a generous fixed bound
// (2100-01-01 in epoch millis), or one past the other side's value when
// that is numeric and larger still. This keeps
// IsTimestamp usable without wiring a real clock through the differ
// (diffing never suspends or reads the clock per spec §5).
func nowMillisFallback(other any) int64 {
	if f, ok := other.(float64); ok {
		if f > 4102444800000 {
			return int64(f) + 1
		}
		return 4102444800000
	}
	return 4102444800000
}

func lastSegment(path string) string {
	depth := 0
	for i := len(path) - 1; i >= 0; i-- {
		switch path[i] {
		case ']':
			depth++
		case '[':
			depth--
		case '.':
			if depth == 0 {
				return path[i+1:]
			}
		}
	}
	return path
}

func sortedCopy(vals []canon.Value) []canon.Value {
	out := make([]canon.Value, len(vals))
	copy(out, vals)
	sort.SliceStable(out, func(i, j int) bool {
		return canon.Encode(out[i]) < canon.Encode(out[j])
	})
	return out
}
