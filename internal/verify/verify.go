// Package verify implements a supplemented before/after baseline
// workflow: capture a session as a baseline, then compare a second
// session against it without needing a live target or a contract.
// Grounded almost directly on the teacher's internal/session/verify.go
// (BaselineSession / CompareAgainstBaseline over recorded browser
// actions), rewritten from browser-console/network baselines to HTTP
// interaction-set baselines.
package verify

import (
	"fmt"

	"github.com/brennhill/replayverify/internal/judge"
	"github.com/brennhill/replayverify/internal/session"
	"github.com/brennhill/replayverify/internal/tolerance"
)

// Baseline is a captured session kept for later comparison.
type Baseline struct {
	SessionID string
	ByHash    map[string]session.Interaction
}

// NewBaseline indexes a session's interactions by requestHash so a
// later session's interactions can be matched back to their recorded
// baseline counterpart regardless of replay order.
func NewBaseline(s *session.Session) *Baseline {
	b := &Baseline{SessionID: s.SessionID, ByHash: make(map[string]session.Interaction, len(s.Interactions))}
	for _, i := range s.Interactions {
		b.ByHash[i.RequestHash] = i
	}
	return b
}

// Outcome is one matched-or-unmatched comparison between a candidate
// session's interaction and its baseline counterpart.
type Outcome struct {
	RequestHash string
	Matched     bool
	Comparison  *judge.ComparisonResult
}

// Compare judges every interaction in candidate against the baseline
// interaction sharing its requestHash. Interactions with no baseline
// counterpart are reported unmatched rather than silently skipped,
// since a missing baseline entry usually signals a changed request
// shape rather than a compatible response.
func Compare(b *Baseline, candidate *session.Session, cfg judge.Config, tol tolerance.Config) []Outcome {
	resolved := judge.ResolveConfig(cfg.Mode, tol)
	outcomes := make([]Outcome, 0, len(candidate.Interactions))

	for _, i := range candidate.Interactions {
		baseline, ok := b.ByHash[i.RequestHash]
		if !ok {
			outcomes = append(outcomes, Outcome{RequestHash: i.RequestHash, Matched: false})
			continue
		}
		cmp := judge.Compare(cfg, resolved,
			baseline.Response.StatusCode, i.Response.StatusCode,
			baseline.Response.Headers, i.Response.Headers,
			baseline.Response.Body, i.Response.Body,
		)
		outcomes = append(outcomes, Outcome{RequestHash: i.RequestHash, Matched: true, Comparison: &cmp})
	}
	return outcomes
}

// Summarize rolls Outcomes into a judge.Summary, treating unmatched
// interactions as errors (spec §7's ComparisonError: "does not abort"
// but still counts toward summary.errors).
func Summarize(outcomes []Outcome) judge.Summary {
	acc := judge.Accumulator{}
	for _, o := range outcomes {
		if !o.Matched {
			acc.AddError()
			continue
		}
		acc.Add(*o.Comparison)
	}
	return acc.Summary()
}

// UnmatchedHashes returns the requestHashes in candidate with no
// baseline counterpart, useful for surfacing "this request shape is
// new since the baseline was captured" to the caller.
func UnmatchedHashes(outcomes []Outcome) []string {
	var hashes []string
	for _, o := range outcomes {
		if !o.Matched {
			hashes = append(hashes, o.RequestHash)
		}
	}
	return hashes
}

// ErrNoBaseline is returned by callers that require a non-nil Baseline
// before comparing; kept here so cmd/replayctl can present one
// consistent error message.
var ErrNoBaseline = fmt.Errorf("verify: no baseline session loaded")
