// Package template implements the contract-driven response synthesizer's
// template compiler (spec §4.F): parsing `{{…}}` placeholders into a
// compiled AST (replacing the "dynamic placeholder evaluation via
// string interpolation" pattern spec §9 flags), a helper registry
// scoped to the compiler instance rather than global state, and a
// fingerprint-keyed compile cache.
//
// Grounded on other_examples' stolostron-go-template-utils
// pkg/templates/templates.go (a Go templating engine over arbitrary
// config objects with a helper-function registry) and
// phihos-haproxy-template-ingress-controller's renderer/component.go
// (template-to-config rendering against a context object).
package template

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// Template is a compiled, immutable render function.
type Template struct {
	fingerprint string
	constant    bool
	value       templateValue
}

// Fingerprint returns the deterministic hash of the template's source
// form, used by the compiler's cache and by callers that want to
// detect whether a contract's example changed across imports.
func (t *Template) Fingerprint() string { return t.fingerprint }

// Render evaluates the template against ctx.
func (t *Template) Render(ctx Context) (any, error) {
	return t.value.render(ctx)
}

// templateValue is the compiled shape of either a string template or
// an object template (a tree whose leaf strings may be compiled).
type templateValue interface {
	render(ctx Context) (any, error)
}

// Compiler compiles templates and holds the helper registry and
// fingerprint cache for one logical engine instance. It deliberately
// carries no package-level state (spec §9: "Global template-engine
// state... is a hazard").
type Compiler struct {
	helpers map[string]HelperFunc
	clockFn Clock
	randFn  RandSource

	mu    sync.Mutex
	cache map[string]*Template
}

// NewCompiler builds a Compiler with the built-in helper set
// registered (uuid, now, timestamp, random, concat); if_eq is a block
// form handled by the parser, not a registered helper.
func NewCompiler() *Compiler {
	c := &Compiler{
		helpers: make(map[string]HelperFunc),
		clockFn: defaultClock,
		randFn:  defaultRandom,
		cache:   make(map[string]*Template),
	}
	registerBuiltins(c)
	return c
}

// WithClock overrides the clock used by the now/timestamp helpers,
// for deterministic tests.
func (c *Compiler) WithClock(fn Clock) *Compiler {
	if fn != nil {
		c.clockFn = fn
	}
	return c
}

// WithRandom overrides the random source used by the random helper.
func (c *Compiler) WithRandom(fn RandSource) *Compiler {
	if fn != nil {
		c.randFn = fn
	}
	return c
}

func (c *Compiler) clock() timeNow  { return timeNow{c.clockFn} }
func (c *Compiler) random(min, max int) int { return c.randFn(min, max) }

// timeNow is a tiny adapter so helpers.go can call c.clock().Format(...)
// without importing "time" twice over; it just forwards to the stored
// Clock func.
type timeNow struct{ fn Clock }

func (t timeNow) Format(layout string) string { return t.fn().Format(layout) }
func (t timeNow) UnixMilli() int64            { return t.fn().UnixMilli() }

// RegisterHelper adds or replaces a helper in this compiler's registry.
func (c *Compiler) RegisterHelper(name string, fn HelperFunc) {
	c.helpers[name] = fn
}

// Compile compiles a template value (string or arbitrary structured
// value whose leaf strings may contain placeholders) and memoizes it
// by fingerprint.
func (c *Compiler) Compile(v any) (*Template, error) {
	fp := fingerprint(v)

	c.mu.Lock()
	if cached, ok := c.cache[fp]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	tv, isConstant, err := c.compileValue(v)
	if err != nil {
		return nil, err
	}
	tmpl := &Template{fingerprint: fp, constant: isConstant, value: tv}

	c.mu.Lock()
	c.cache[fp] = tmpl
	c.mu.Unlock()
	return tmpl, nil
}

func (c *Compiler) compileValue(v any) (templateValue, bool, error) {
	switch t := v.(type) {
	case string:
		if !containsPlaceholder(t) {
			return constantValue{v: t}, true, nil
		}
		nodes, err := parse(t)
		if err != nil {
			return nil, false, err
		}
		return stringTemplate{nodes: nodes, compiler: c}, false, nil
	case map[string]any:
		return c.compileObject(t)
	case []any:
		return c.compileArray(t)
	default:
		return constantValue{v: v}, true, nil
	}
}

func (c *Compiler) compileObject(m map[string]any) (templateValue, bool, error) {
	fields := make(map[string]templateValue, len(m))
	constant := true
	for k, v := range m {
		tv, isConst, err := c.compileValue(v)
		if err != nil {
			return nil, false, fmt.Errorf("compiling field %q: %w", k, err)
		}
		fields[k] = tv
		constant = constant && isConst
	}
	return objectTemplate{fields: fields}, constant, nil
}

func (c *Compiler) compileArray(arr []any) (templateValue, bool, error) {
	elems := make([]templateValue, len(arr))
	constant := true
	for i, v := range arr {
		tv, isConst, err := c.compileValue(v)
		if err != nil {
			return nil, false, fmt.Errorf("compiling element %d: %w", i, err)
		}
		elems[i] = tv
		constant = constant && isConst
	}
	return arrayTemplate{elems: elems}, constant, nil
}

func containsPlaceholder(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && s[i+1] == '{' {
			return true
		}
	}
	return false
}

// fingerprint is a deterministic hash of a template's source form.
func fingerprint(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(fmt.Sprintf("%v", v))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
