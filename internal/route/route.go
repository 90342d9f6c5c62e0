// Package route implements the route resolver (spec §4.G): an
// insertion-ordered table of path-parameter patterns with a
// positive/negative match cache, grounded on other_examples'
// ksharpdabu-skipper routing/routing.go (insertion-ordered route
// matching with a resolved-route cache) and the teacher's
// internal/capture/query_dispatcher.go (dispatch-by-key with a cache).
package route

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Route is one registered pattern (spec §3's Route type).
type Route struct {
	Pattern  string
	Method   string // uppercased, or "*"
	Handler  any    // opaque payload (e.g. a compiled template) attached by the caller
	segments []segment
}

type segment struct {
	literal string
	isParam bool
}

// Match is the result of a successful resolution: the matched route
// plus extracted path parameters.
type Match struct {
	Route  *Route
	Params map[string]string
}

// Metrics tracks resolver activity (spec §4.G).
type Metrics struct {
	CacheHits             int64
	CacheMisses           int64
	TemplateCompilations  int64
	TemplateRenders       int64
	TotalRenderNanos      int64
}

// AverageRenderNanos returns the mean render time, or 0 when no
// renders have been recorded.
func (m Metrics) AverageRenderNanos() int64 {
	if m.TemplateRenders == 0 {
		return 0
	}
	return m.TotalRenderNanos / m.TemplateRenders
}

// Resolver holds routes in insertion order plus the match cache.
// Not safe for concurrent registration and resolution; registration
// must complete (and ClearCaches be called) before replay begins, per
// spec §5's single-threaded cooperative model.
type Resolver struct {
	routes  []*Route
	cache   map[uint64]*Match
	metrics Metrics
	mu      sync.Mutex // guards metrics and cache; routes are read-only during replay
}

// NewResolver constructs an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[uint64]*Match)}
}

// Register adds a route to the end of the table and invalidates the
// cache (spec §4.G: "Both hits and misses are cached;
// clearCaches() invalidates all cache entries (used after route
// registration)").
func (r *Resolver) Register(pattern, method string, handler any) *Route {
	route := &Route{
		Pattern:  pattern,
		Method:   strings.ToUpper(method),
		Handler:  handler,
		segments: compileSegments(pattern),
	}
	r.routes = append(r.routes, route)
	r.ClearCaches()
	return route
}

// ClearCaches invalidates all cached match results.
func (r *Resolver) ClearCaches() {
	r.cache = make(map[uint64]*Match)
}

// Metrics returns a snapshot of the resolver's counters.
func (r *Resolver) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// RecordTemplateCompilation increments the templateCompilations counter.
func (r *Resolver) RecordTemplateCompilation() {
	r.mu.Lock()
	r.metrics.TemplateCompilations++
	r.mu.Unlock()
}

// RecordTemplateRender increments templateRenders and accumulates
// render duration for the running average.
func (r *Resolver) RecordTemplateRender(durationNanos int64) {
	r.mu.Lock()
	r.metrics.TemplateRenders++
	r.metrics.TotalRenderNanos += durationNanos
	r.mu.Unlock()
}

// Resolve matches method+path against the route table, consulting the
// cache first. Misses scan routes in insertion order; the first match
// wins. Both hits and misses (nil Match) are cached.
func (r *Resolver) Resolve(method, path string) *Match {
	key := cacheKey(method, path)

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.metrics.CacheHits++
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	var found *Match
	upperMethod := strings.ToUpper(method)
	for _, rt := range r.routes {
		if rt.Method != "*" && rt.Method != upperMethod {
			continue
		}
		if params, ok := matchPath(rt.segments, path); ok {
			found = &Match{Route: rt, Params: params}
			break
		}
	}

	r.mu.Lock()
	r.metrics.CacheMisses++
	r.cache[key] = found
	r.mu.Unlock()

	return found
}

func cacheKey(method, path string) uint64 {
	return xxhash.Sum64String(strings.ToUpper(method) + "-" + path)
}

func compileSegments(pattern string) []segment {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segments := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			segments[i] = segment{isParam: true, literal: strings.TrimPrefix(p, ":")}
		} else {
			segments[i] = segment{literal: p}
		}
	}
	return segments
}

func matchPath(segments []segment, path string) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range segments {
		if seg.isParam {
			params[seg.literal] = parts[i]
			continue
		}
		if seg.literal != parts[i] {
			return nil, false
		}
	}
	return params, true
}
