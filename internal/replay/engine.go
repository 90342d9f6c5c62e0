package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brennhill/replayverify/internal/contract"
	"github.com/brennhill/replayverify/internal/judge"
	"github.com/brennhill/replayverify/internal/rcontext"
	"github.com/brennhill/replayverify/internal/route"
	"github.com/brennhill/replayverify/internal/session"
	"github.com/brennhill/replayverify/internal/template"
	"github.com/brennhill/replayverify/internal/tolerance"
)

// DefaultRequestTimeout is the per-live-call deadline when none is
// configured (spec §5: "default 30s, configurable").
const DefaultRequestTimeout = 30 * time.Second

// InteractionResult is the per-interaction outcome (spec §4.I
// "Failure semantics" plus the ComparisonResult shape of spec §3).
type InteractionResult struct {
	Timestamp   time.Time               `json:"timestamp"`
	RequestHash string                  `json:"requestHash"`
	Error       string                  `json:"error,omitempty"`
	Comparison  *judge.ComparisonResult `json:"comparison,omitempty"`
}

// FilteredStats records how many interactions survived filtering
// (spec §4.I: "original and filtered counts are reported").
type FilteredStats struct {
	Original int `json:"original"`
	Filtered int `json:"filtered"`
}

// SessionResult is the aggregate replay outcome for one session
// (spec §3's SessionResult).
type SessionResult struct {
	Summary            judge.Summary       `json:"summary"`
	InteractionResults []InteractionResult `json:"interactionResults"`
	ComparisonMode     judge.Mode          `json:"comparisonMode"`
	Filter             *Filter             `json:"filter,omitempty"`
	FilteredStats      *FilteredStats      `json:"filteredStats,omitempty"`
}

// Engine is the ReplayEngine (spec §4.I).
type Engine struct {
	Resolver            *route.Resolver
	Compiler            *template.Compiler
	Context             *rcontext.ContextBuilder
	Tolerance           tolerance.Config
	Judge               judge.Config
	TargetBaseURL       string
	UseDynamicResponses bool
	RequestTimeout      time.Duration
	HTTPClient          *http.Client
	Logger              *zap.Logger
}

// NewEngine builds an Engine with sane defaults; callers set the
// fields they need (Resolver, Compiler, TargetBaseURL, etc.).
func NewEngine() *Engine {
	return &Engine{
		Resolver:            route.NewResolver(),
		Compiler:            template.NewCompiler(),
		Context:             rcontext.New(),
		Tolerance:           tolerance.TolerantDefaults(),
		Judge:               judge.Config{Mode: judge.ModeDefault},
		UseDynamicResponses: true,
		RequestTimeout:      DefaultRequestTimeout,
		HTTPClient:          &http.Client{},
		Logger:              zap.NewNop(),
	}
}

// Run replays s sequentially (spec §5: single-threaded cooperative),
// honoring ctx cancellation between interactions.
func (e *Engine) Run(ctx context.Context, s *session.Session, filter *Filter) (*SessionResult, error) {
	if filter != nil {
		if err := filter.Compile(); err != nil {
			return nil, fmt.Errorf("replay: compile filter: %w", err)
		}
	}
	matched, original, filteredCount := filter.Apply(s)

	acc := judge.Accumulator{}
	results := make([]InteractionResult, 0, len(matched))
	tol := e.Tolerance
	cfg := judge.ResolveConfig(e.Judge.Mode, tol)

	for _, interaction := range matched {
		if err := ctx.Err(); err != nil {
			e.Logger.Info("replay cancelled between interactions", zap.Error(err))
			break
		}

		result := InteractionResult{Timestamp: interaction.Timestamp, RequestHash: interaction.RequestHash}

		replayed, err := e.dispatch(ctx, interaction.Request)
		if err != nil {
			result.Error = err.Error()
			acc.AddError()
			results = append(results, result)
			continue
		}

		cmp := judge.Compare(
			judge.Config{Mode: e.Judge.Mode, UnifyAdditions: e.Judge.UnifyAdditions},
			cfg,
			interaction.Response.StatusCode, replayed.StatusCode,
			interaction.Response.Headers, replayed.Headers,
			interaction.Response.Body, replayed.Body,
		)
		result.Comparison = &cmp
		acc.Add(cmp)
		results = append(results, result)
	}

	sr := &SessionResult{
		Summary:            acc.Summary(),
		InteractionResults: results,
		ComparisonMode:     e.Judge.Mode,
	}
	if filter != nil {
		sr.Filter = filter
		sr.FilteredStats = &FilteredStats{Original: original, Filtered: filteredCount}
	}
	return sr, nil
}

// synthesizedResponse is the common shape produced by either dispatch
// path before canonicalization.
type synthesizedResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       any
}

func (e *Engine) dispatch(ctx context.Context, req session.Request) (synthesizedResponse, error) {
	if e.UseDynamicResponses {
		if resp, ok, err := e.renderTemplate(req); ok || err != nil {
			return resp, err
		}
	}
	return e.liveCall(ctx, req)
}

// renderTemplate attempts step 1 of spec §4.I: RouteResolver ->
// ContextBuilder -> render. ok is false when no matching route template
// exists, in which case the caller falls through to a live call.
func (e *Engine) renderTemplate(req session.Request) (synthesizedResponse, bool, error) {
	match := e.Resolver.Resolve(req.Method, req.Path)
	if match == nil {
		return synthesizedResponse{}, false, nil
	}
	tmpl, ok := match.Route.Handler.(contract.RouteTemplate)
	if !ok {
		return synthesizedResponse{}, false, nil
	}

	ctx := e.Context.Build(rcontext.RequestInfo{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Params: match.Params,
		Body:   req.Body,
	})

	start := time.Now()
	compiled, err := e.Compiler.Compile(tmpl.Body)
	if err != nil {
		return synthesizedResponse{}, true, fmt.Errorf("replay: compile template for %s %s: %w", req.Method, req.Path, err)
	}
	e.Resolver.RecordTemplateCompilation()

	body, err := compiled.Render(ctx)
	e.Resolver.RecordTemplateRender(time.Since(start).Nanoseconds())
	if err != nil {
		return synthesizedResponse{}, true, fmt.Errorf("replay: render template for %s %s: %w", req.Method, req.Path, err)
	}

	return synthesizedResponse{
		StatusCode: tmpl.StatusCode,
		Headers:    tmpl.Headers,
		Body:       body,
	}, true, nil
}

// liveCall implements spec §4.I step 2: issue a real HTTP request and
// accept any status code; transport errors become a replayError
// (status 500, error body) instead of aborting the session.
func (e *Engine) liveCall(ctx context.Context, req session.Request) (synthesizedResponse, error) {
	timeout := e.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := strings.TrimRight(e.TargetBaseURL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + encodeQuery(req.Query)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return errorResponse(err), nil
		}
		bodyReader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, target, bodyReader)
	if err != nil {
		return errorResponse(err), nil
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.HTTPClient.Do(httpReq)
	if err != nil {
		return errorResponse(err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResponse(err), nil
	}

	var parsedBody any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsedBody); err != nil {
			parsedBody = string(raw)
		}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return synthesizedResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       parsedBody,
	}, nil
}

// errorResponse builds the replayError response shape (spec §4.I:
// "surface transport errors as replayError: true with status 500 and
// error body").
func errorResponse(err error) synthesizedResponse {
	return synthesizedResponse{
		StatusCode: 500,
		Body:       map[string]any{"replayError": true, "message": err.Error()},
	}
}

func encodeQuery(q map[string][]string) string {
	v := url.Values{}
	for k, vals := range q {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	return v.Encode()
}
