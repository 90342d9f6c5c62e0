// Package judge implements the compatibility judge (spec §4.E): it
// aggregates structural diffs into a per-interaction verdict and rolls
// per-interaction verdicts up into a per-session score, honoring the
// strict/tolerant/default comparison modes (spec §4.E, §8).
package judge

import (
	"encoding/json"
	"strings"

	"github.com/brennhill/replayverify/internal/differ"
	"github.com/brennhill/replayverify/internal/tolerance"
)

// Mode selects a named ToleranceConfig preset.
type Mode int

const (
	ModeDefault Mode = iota
	ModeStrict
	ModeTolerant
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeTolerant:
		return "tolerant"
	default:
		return "default"
	}
}

// MarshalJSON renders Mode as its string name, matching the spec's
// documented comparisonMode values rather than the underlying int.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// ResolveConfig applies the comparison mode to a supplied
// ToleranceConfig, per spec §4.E: strict zeroes it, tolerant
// force-enables everything, default passes it through untouched.
func ResolveConfig(mode Mode, supplied tolerance.Config) tolerance.Config {
	switch mode {
	case ModeStrict:
		return tolerance.Strict()
	case ModeTolerant:
		return tolerance.TolerantDefaults()
	default:
		return supplied
	}
}

// Config controls judge behavior beyond the tolerance engine.
type Config struct {
	Mode Mode
	// UnifyAdditions, when true, resolves spec §9's open question by
	// treating added headers the same as added body fields (both
	// non-breaking). Default false preserves the documented asymmetry.
	UnifyAdditions bool
}

// HeaderDiffCounts mirrors spec §3's ComparisonResult.headerDiffs.
type HeaderDiffCounts struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// BodyDiffCounts mirrors spec §3's ComparisonResult.bodyDiffs.
type BodyDiffCounts struct {
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Modified    int `json:"modified"`
	TypeChanged int `json:"typeChanged"`
	Tolerated   int `json:"tolerated"`
	Total       int `json:"total"`
}

// ComparisonResult is the per-interaction verdict (spec §3).
type ComparisonResult struct {
	RecordedStatus          int              `json:"recordedStatus"`
	ReplayedStatus          int              `json:"replayedStatus"`
	StatusMatch             bool             `json:"statusMatch"`
	HeaderDiffs             HeaderDiffCounts `json:"headerDiffs"`
	BodyDiffs               BodyDiffCounts   `json:"bodyDiffs"`
	IsCompatible            bool             `json:"isCompatible"`
	IsEffectivelyCompatible bool             `json:"isEffectivelyCompatible"`
	HeaderDiffDetail        differ.Result    `json:"headerDiffDetail"`
	BodyDiffDetail          differ.Result    `json:"bodyDiffDetail"`
}

// Compare judges a single interaction's recorded vs. replayed
// status/headers/body.
func Compare(cfg Config, tol tolerance.Config,
	recordedStatus, replayedStatus int,
	recordedHeaders, replayedHeaders map[string]string,
	recordedBody, replayedBody any) ComparisonResult {

	headerResult := diffHeaders(tol, recordedHeaders, replayedHeaders)
	bodyResult := differ.Compare(&tol, recordedBody, replayedBody)

	headerCounts := HeaderDiffCounts{
		Added:    len(headerResult.Added),
		Removed:  len(headerResult.Removed),
		Modified: len(headerResult.Modified) + len(headerResult.TypeChanged),
	}
	headerCounts.Total = headerCounts.Added + headerCounts.Removed + headerCounts.Modified

	bodyCounts := BodyDiffCounts{
		Added:       len(bodyResult.Added),
		Removed:     len(bodyResult.Removed),
		Modified:    len(bodyResult.Modified),
		TypeChanged: len(bodyResult.TypeChanged),
		Tolerated:   len(bodyResult.Tolerated),
	}
	bodyCounts.Total = bodyCounts.Added + bodyCounts.Removed + bodyCounts.Modified + bodyCounts.TypeChanged

	statusMatch := recordedStatus == replayedStatus

	headerBreaking := headerCounts.Removed > 0 || (!cfg.UnifyAdditions && headerCounts.Added > 0)
	bodyBreaking := bodyCounts.Removed > 0 || bodyCounts.TypeChanged > 0

	isCompatible := statusMatch && !headerBreaking && !bodyBreaking

	nonTolerated := headerCounts.Total + bodyCounts.Total
	if cfg.Mode == ModeStrict && nonTolerated > 0 {
		// Strict mode fails an interaction on any deviation, not only on a breaking one.
		isCompatible = false
	}
	toleratedChanges := bodyCounts.Tolerated
	totalChanges := nonTolerated + toleratedChanges
	effectiveChanges := totalChanges - toleratedChanges
	if effectiveChanges < 0 {
		effectiveChanges = 0
	}

	isEffectivelyCompatible := isCompatible || effectiveChanges == 0

	return ComparisonResult{
		RecordedStatus:          recordedStatus,
		ReplayedStatus:          replayedStatus,
		StatusMatch:             statusMatch,
		HeaderDiffs:             headerCounts,
		BodyDiffs:               bodyCounts,
		IsCompatible:            isCompatible,
		IsEffectivelyCompatible: isEffectivelyCompatible,
		HeaderDiffDetail:        headerResult,
		BodyDiffDetail:          bodyResult,
	}
}

// TotalChanges returns the change count for an interaction, tolerated
// body changes included.
func (r ComparisonResult) TotalChanges() int {
	return r.HeaderDiffs.Total + r.BodyDiffs.Total + r.BodyDiffs.Tolerated
}

// EffectiveChanges returns TotalChanges minus tolerated body changes.
func (r ComparisonResult) EffectiveChanges() int {
	eff := r.TotalChanges() - r.BodyDiffs.Tolerated
	if eff < 0 {
		return 0
	}
	return eff
}

func diffHeaders(tol tolerance.Config, recorded, replayed map[string]string) differ.Result {
	rf := filterHeaders(tol, recorded)
	pf := filterHeaders(tol, replayed)
	return differ.Compare(&tol, rf, pf)
}

func filterHeaders(tol tolerance.Config, headers map[string]string) map[string]any {
	out := make(map[string]any, len(headers))
	for k, v := range headers {
		if tol.IsHeaderIgnored(k) {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
