// Package replay implements the ReplayEngine (spec §4.I): sequential,
// single-threaded cooperative replay of a session's interactions,
// dispatching to either a synthesized template response or a live
// HTTP call, then canonicalizing, diffing, and judging each pair.
// Grounded on the teacher's internal/recording/playback.go (sequential
// replay of recorded steps against a live target) and
// internal/bridge's glob-based tool-name filtering (adapted here to
// route-pattern filtering via gobwas/glob).
package replay

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/brennhill/replayverify/internal/session"
)

// Filter restricts which interactions from a session are replayed
// (spec §4.I: "ANDed across methods, route patterns ... interaction
// tags, and session tags").
type Filter struct {
	Methods      []string
	RoutePattern []string
	Tags         []string
	SessionTags  []string

	compiled []glob.Glob
}

// Compile precompiles the route-pattern globs; call once before Apply.
func (f *Filter) Compile() error {
	f.compiled = f.compiled[:0]
	for _, p := range f.RoutePattern {
		g, err := glob.Compile(p)
		if err != nil {
			return err
		}
		f.compiled = append(f.compiled, g)
	}
	return nil
}

// Matches reports whether a single interaction passes the filter,
// given the owning session's tags.
func (f *Filter) Matches(i session.Interaction, sessionTags []string) bool {
	if f == nil {
		return true
	}
	if len(f.Methods) > 0 && !containsFold(f.Methods, i.Request.Method) {
		return false
	}
	if len(f.RoutePattern) > 0 && !f.matchesAnyRoute(i.Request.Path) {
		return false
	}
	if len(f.Tags) > 0 && !anyMatch(f.Tags, i.Tags) {
		return false
	}
	if len(f.SessionTags) > 0 && !anyMatch(f.SessionTags, sessionTags) {
		return false
	}
	return true
}

func (f *Filter) matchesAnyRoute(path string) bool {
	for idx, g := range f.compiled {
		if g.Match(path) {
			return true
		}
		if strings.Contains(path, f.RoutePattern[idx]) {
			return true
		}
	}
	return false
}

// Apply filters a session's interactions, returning the surviving
// subset plus the original and filtered counts (spec §4.I: "original
// and filtered counts are reported").
func (f *Filter) Apply(s *session.Session) (matched []session.Interaction, original, filtered int) {
	original = len(s.Interactions)
	if f == nil {
		return s.Interactions, original, original
	}
	for _, i := range s.Interactions {
		if f.Matches(i, s.Metadata.Tags) {
			matched = append(matched, i)
		}
	}
	return matched, original, len(matched)
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func anyMatch(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}
