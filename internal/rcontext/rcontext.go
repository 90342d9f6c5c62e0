// Package rcontext builds the per-request template context (spec §4.H):
// the default request/timestamp/random scaffold plus an ordered chain
// of caller-registered builders that each shallow-merge their own
// contribution on top, later overriding earlier. Errors from an
// individual builder are logged and swallowed so one misbehaving
// builder never aborts a replay, grounded on the teacher's
// internal/hook middleware chain (each hook runs in order, failures
// are logged and do not stop the chain).
package rcontext

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brennhill/replayverify/internal/template"
)

// RequestInfo is the subset of an inbound request exposed to templates
// under the "request" key.
type RequestInfo struct {
	Method string
	Path   string
	Query  map[string][]string
	Params map[string]string
	Body   any
}

// Builder contributes additional fields to the context. It must not
// mutate base; it returns the fragment to merge in.
type Builder func(base template.Context) (template.Context, error)

// ContextBuilder assembles the default context and runs registered
// builders in registration order.
type ContextBuilder struct {
	builders []namedBuilder
	clock    func() time.Time
	logger   *zap.Logger
}

type namedBuilder struct {
	name string
	fn   Builder
}

// Option configures a ContextBuilder.
type Option func(*ContextBuilder)

// WithClock overrides the clock used for the default "timestamp" field.
func WithClock(fn func() time.Time) Option {
	return func(cb *ContextBuilder) {
		if fn != nil {
			cb.clock = fn
		}
	}
}

// WithLogger attaches a logger used to report swallowed builder errors.
func WithLogger(l *zap.Logger) Option {
	return func(cb *ContextBuilder) {
		if l != nil {
			cb.logger = l
		}
	}
}

// New constructs a ContextBuilder with no registered builders.
func New(opts ...Option) *ContextBuilder {
	cb := &ContextBuilder{
		clock:  time.Now,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(cb)
	}
	return cb
}

// Register appends a named builder to the merge chain.
func (cb *ContextBuilder) Register(name string, fn Builder) {
	cb.builders = append(cb.builders, namedBuilder{name: name, fn: fn})
}

// Build assembles the default context (spec §4.H: request.{method,
// path, query, params, body}, timestamp, random.{uuid, number}) then
// runs each registered builder in order, shallow-merging its result on
// top of the accumulator so later builders override earlier ones and
// the defaults.
func (cb *ContextBuilder) Build(req RequestInfo) template.Context {
	ctx := template.Context{
		"request": map[string]any{
			"method": req.Method,
			"path":   req.Path,
			"query":  queryToAny(req.Query),
			"params": paramsToAny(req.Params),
			"body":   req.Body,
		},
		"timestamp": cb.clock().UnixMilli(),
		"random": map[string]any{
			"uuid":   uuid.New().String(),
			"number": defaultRandomNumber(),
		},
	}

	for _, b := range cb.builders {
		fragment, err := b.fn(ctx)
		if err != nil {
			cb.logger.Warn("context builder failed, skipping its contribution",
				zap.String("builder", b.name), zap.Error(err))
			continue
		}
		mergeInto(ctx, fragment)
	}

	return ctx
}

func mergeInto(dst, src template.Context) {
	for k, v := range src {
		dst[k] = v
	}
}

func queryToAny(q map[string][]string) map[string]any {
	out := make(map[string]any, len(q))
	for k, v := range q {
		vals := make([]any, len(v))
		for i, s := range v {
			vals[i] = s
		}
		out[k] = vals
	}
	return out
}

func paramsToAny(p map[string]string) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func defaultRandomNumber() int {
	return int(time.Now().UnixNano() % 1000)
}
