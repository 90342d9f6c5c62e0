// Package report implements the Reporter boundary (spec §6.4, §K):
// it renders a replay.SessionResult into the machine-readable report
// JSON (SessionResult plus comparisonMode, sessionId, contractFile,
// timestamp, optional performance/filteredStats), and derives the
// human-facing incompatibilities[]/toleratedChanges[] lists and the
// per-endpoint table described in spec §7. Grounded on the teacher's
// internal/session's diff-summary JSON shape
// (DiffSummary/SessionDiffResult), adapted from browser-action diffs
// to HTTP interaction diffs.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brennhill/replayverify/internal/judge"
	"github.com/brennhill/replayverify/internal/replay"
)

// Incompatibility names one breaking divergence for a single
// interaction (spec §7: "naming endpoints, removed fields, and type
// changes").
type Incompatibility struct {
	Endpoint string `json:"endpoint"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// ToleratedChange names one tolerated divergence (spec §7: "timestamp
// drifts and UUID normalizations").
type ToleratedChange struct {
	Endpoint string `json:"endpoint"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}

// EndpointRow is one row of the per-endpoint table (spec §7: "status
// delta, total diffs, tolerated diffs, effective diffs, and verdict").
type EndpointRow struct {
	Endpoint         string `json:"endpoint"`
	RecordedStatus   int    `json:"recordedStatus"`
	ReplayedStatus   int    `json:"replayedStatus"`
	TotalDiffs       int    `json:"totalDiffs"`
	ToleratedDiffs   int    `json:"toleratedDiffs"`
	EffectiveDiffs   int    `json:"effectiveDiffs"`
	Verdict          string `json:"verdict"`
}

// Report is the §6.4 machine-readable document.
type Report struct {
	SessionID        string                 `json:"sessionId"`
	ContractFile     string                 `json:"contractFile,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
	ComparisonMode   string                 `json:"comparisonMode"`
	Result           replay.SessionResult   `json:"result"`
	Incompatibilities []Incompatibility     `json:"incompatibilities"`
	ToleratedChanges []ToleratedChange      `json:"toleratedChanges"`
	Endpoints        []EndpointRow          `json:"endpoints"`
	Performance      *Performance           `json:"performance,omitempty"`
}

// Performance is the optional performance block (spec §6.4).
type Performance struct {
	TotalDurationNanos   int64   `json:"totalDurationNanos"`
	AverageDurationNanos int64   `json:"averageDurationNanos"`
	CacheHitRatio        float64 `json:"cacheHitRatio"`
}

// endpointKey matches an InteractionResult back to a human label;
// since replay.InteractionResult doesn't carry the original request,
// callers pass the aligned requests alongside the result.
type endpointKey struct {
	Method string
	Path   string
}

// Build assembles a Report from a completed replay and the original
// requests in the same order as result.InteractionResults (the
// session's matched/filtered interaction slice).
func Build(sessionID, contractFile string, now time.Time, mode judge.Mode, result *replay.SessionResult, requests []RequestRef) Report {
	r := Report{
		SessionID:      sessionID,
		ContractFile:   contractFile,
		Timestamp:      now,
		ComparisonMode: mode.String(),
		Result:         *result,
	}

	for i, ir := range result.InteractionResults {
		var endpoint string
		if i < len(requests) {
			endpoint = fmt.Sprintf("%s %s", requests[i].Method, requests[i].Path)
		} else {
			endpoint = "unknown"
		}

		if ir.Error != "" {
			r.Incompatibilities = append(r.Incompatibilities, Incompatibility{
				Endpoint: endpoint, Kind: "error", Reason: ir.Error,
			})
			continue
		}
		if ir.Comparison == nil {
			continue
		}
		cmp := ir.Comparison

		row := EndpointRow{
			Endpoint:       endpoint,
			RecordedStatus: cmp.RecordedStatus,
			ReplayedStatus: cmp.ReplayedStatus,
			TotalDiffs:     cmp.TotalChanges(),
			ToleratedDiffs: cmp.BodyDiffs.Tolerated,
			EffectiveDiffs: cmp.EffectiveChanges(),
			Verdict:        verdict(*cmp),
		}
		r.Endpoints = append(r.Endpoints, row)

		for _, d := range cmp.BodyDiffDetail.Removed {
			r.Incompatibilities = append(r.Incompatibilities, Incompatibility{
				Endpoint: endpoint, Path: d.Path, Kind: "removed", Reason: "field removed",
			})
		}
		for _, d := range cmp.BodyDiffDetail.TypeChanged {
			r.Incompatibilities = append(r.Incompatibilities, Incompatibility{
				Endpoint: endpoint, Path: d.Path, Kind: "typeChanged", Reason: d.Reason,
			})
		}
		for _, d := range cmp.HeaderDiffDetail.Added {
			r.Incompatibilities = append(r.Incompatibilities, Incompatibility{
				Endpoint: endpoint, Path: d.Path, Kind: "headerAdded", Reason: "header added",
			})
		}
		for _, d := range cmp.BodyDiffDetail.Tolerated {
			r.ToleratedChanges = append(r.ToleratedChanges, ToleratedChange{
				Endpoint: endpoint, Path: d.Path, Reason: d.Reason,
			})
		}
	}

	return r
}

func verdict(cmp judge.ComparisonResult) string {
	switch {
	case cmp.IsCompatible:
		return "compatible"
	case cmp.IsEffectivelyCompatible:
		return "effectively-compatible"
	default:
		return "incompatible"
	}
}

// RequestRef is the minimal per-interaction identity needed to label
// a report row (method + path), kept separate from session.Request so
// this package doesn't need to import internal/session.
type RequestRef struct {
	Method string
	Path   string
}

// ToJSON renders the report as indented JSON for --format=json
// (spec §6.3).
func (r Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
