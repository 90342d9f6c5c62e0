// Package contract implements the ContractImporter (spec §4.J): it
// walks an OpenAPI-3 subset document and registers a route per 2xx
// response example, grounded on the teacher's internal/schema
// package's walk-a-nested-document-and-extract-examples pattern,
// adapted from JSON Schema validation to OpenAPI example extraction.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/brennhill/replayverify/internal/route"
)

// Document is the subset of an OpenAPI-3 document this importer reads
// (spec §6.2): paths -> method -> responses -> status -> response.
type Document struct {
	Paths map[string]map[string]MethodSpec `json:"paths" yaml:"paths"`
}

// MethodSpec holds the responses for one path+method.
type MethodSpec struct {
	Responses map[string]ResponseSpec `json:"responses" yaml:"responses"`
}

// ResponseSpec is one status code's response shape.
type ResponseSpec struct {
	Examples map[string]any     `json:"examples,omitempty" yaml:"examples,omitempty"`
	Content  map[string]Content `json:"content,omitempty" yaml:"content,omitempty"`
}

// Content is one media type's example payload.
type Content struct {
	Example  any            `json:"example,omitempty" yaml:"example,omitempty"`
	Examples map[string]any `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// StatusPolicy controls which 2xx status is used when a path+method
// has more than one (an Open Question the spec leaves unresolved).
type StatusPolicy int

const (
	// FirstSuccess picks the lowest-numbered 2xx status encountered,
	// in deterministic sorted-key order. This is the default: it
	// matches "the happy path" with no configuration required.
	FirstSuccess StatusPolicy = iota
	// PreferStatus picks a caller-specified status if present among
	// the 2xx responses, else falls back to FirstSuccess.
	PreferStatus
)

// RouteTemplate is what the importer produces for each registered
// route: enough to synthesize a response via the template compiler.
type RouteTemplate struct {
	PathPattern string
	Method      string
	StatusCode  int
	Headers     map[string]string
	Body        any
}

// Importer extracts RouteTemplates from a Document and registers them
// into a route.Resolver.
type Importer struct {
	Policy         StatusPolicy
	PreferredCodes map[string]int // "METHOD PathPattern" -> status, used with PreferStatus
}

// NewImporter builds an Importer using FirstSuccess by default.
func NewImporter() *Importer {
	return &Importer{Policy: FirstSuccess}
}

// Parse decodes a raw OpenAPI-subset document, in either JSON or YAML
// (spec §6.2 names JSON; YAML is accepted too since contract files are
// hand-authored and YAML is the more common OpenAPI authoring format).
// The format is sniffed from content rather than a file extension,
// since Parse only ever sees bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("contract: parse: %w", err)
		}
		return &doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("contract: parse: %w", err)
	}
	return &doc, nil
}

// looksLikeJSON reports whether the first non-whitespace byte opens a
// JSON object or array.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Import walks doc and registers one route per path+method that has a
// usable 2xx example, returning the templates it registered. A
// malformed example on one path+method does not abort the rest of the
// walk: errors are accumulated with multierr and returned together
// once every path has been attempted, so a single bad contract entry
// never hides problems in the others.
func (imp *Importer) Import(doc *Document, resolver *route.Resolver) ([]RouteTemplate, error) {
	var templates []RouteTemplate
	var errs error

	paths := sortedKeys(doc.Paths)
	for _, pathPattern := range paths {
		methods := doc.Paths[pathPattern]
		methodNames := sortedKeys(methods)
		for _, method := range methodNames {
			spec := methods[method]
			status, resp, ok := imp.pickStatus(pathPattern, method, spec)
			if !ok {
				continue
			}
			body, err := extractExample(resp)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("contract: %s %s: %w", method, pathPattern, err))
				continue
			}
			if body == nil {
				continue
			}
			tmpl := RouteTemplate{
				PathPattern: pathPattern,
				Method:      method,
				StatusCode:  status,
				Headers:     map[string]string{"Content-Type": "application/json"},
				Body:        body,
			}
			templates = append(templates, tmpl)
			resolver.Register(pathPattern, method, tmpl)
		}
	}
	return templates, errs
}

func (imp *Importer) pickStatus(pathPattern, method string, spec MethodSpec) (int, ResponseSpec, bool) {
	codes := sortedKeys(spec.Responses)
	var successCodes []string
	for _, c := range codes {
		if isSuccessCode(c) {
			successCodes = append(successCodes, c)
		}
	}
	if len(successCodes) == 0 {
		return 0, ResponseSpec{}, false
	}

	chosen := successCodes[0]
	if imp.Policy == PreferStatus && imp.PreferredCodes != nil {
		if want, ok := imp.PreferredCodes[method+" "+pathPattern]; ok {
			wantStr := strconv.Itoa(want)
			for _, c := range successCodes {
				if c == wantStr {
					chosen = c
					break
				}
			}
		}
	}

	status, err := strconv.Atoi(chosen)
	if err != nil {
		return 0, ResponseSpec{}, false
	}
	return status, spec.Responses[chosen], true
}

func isSuccessCode(code string) bool {
	return len(code) == 3 && code[0] == '2'
}

// extractExample implements spec §4.J's fallback chain.
func extractExample(resp ResponseSpec) (any, error) {
	if len(resp.Examples) > 0 {
		return firstExampleValue(resp.Examples), nil
	}
	if json1, ok := resp.Content["application/json"]; ok {
		if json1.Example != nil {
			return json1.Example, nil
		}
		if len(json1.Examples) > 0 {
			return unwrapValue(firstExampleValue(json1.Examples)), nil
		}
	}
	return nil, nil
}

// firstExampleValue returns the value for the lexicographically first
// key so extraction is deterministic across runs (spec §8 invariant 1).
func firstExampleValue(m map[string]any) any {
	keys := sortedKeys(m)
	raw := m[keys[0]]
	if s, ok := raw.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			return parsed
		}
		return map[string]any{"value": s}
	}
	return raw
}

// unwrapValue unwraps an OpenAPI example object's `.value` field if
// present, per spec §4.J step 3.
func unwrapValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["value"]; ok {
			return inner
		}
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
