// Package session implements the Session/Interaction/Request/Response
// types (spec §3) and their JSON load/save (spec §6.1), grounded on
// the teacher's internal/session package (load/save of a recorded
// session, immutable after load) with the field shapes replaced
// end-to-end for HTTP interactions instead of browser actions.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Request is one recorded HTTP request (spec §3).
type Request struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query,omitempty"`
	Headers map[string]string   `json:"headers,omitempty"`
	Body    any                 `json:"body,omitempty"`
}

// Response is one recorded HTTP response (spec §3).
type Response struct {
	StatusCode    int               `json:"statusCode"`
	StatusMessage string            `json:"statusMessage,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Body          any               `json:"body,omitempty"`
}

// Interaction is one request/response pair within a session (spec §3).
type Interaction struct {
	Timestamp   time.Time     `json:"timestamp"`
	RequestHash string        `json:"requestHash"`
	Tags        []string      `json:"tags,omitempty"`
	Request     Request       `json:"request"`
	Response    Response      `json:"response"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Metadata is session-level descriptive information (spec §3). Extra
// fields beyond the named ones are preserved via the Extra map
// ("... arbitrary ..." per spec §6.1).
type Metadata struct {
	Tags        []string       `json:"tags,omitempty"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Environment string         `json:"environment,omitempty"`
	Creator     string         `json:"creator,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Session is an ordered, immutable-once-loaded sequence of
// interactions plus session-level metadata (spec §3).
type Session struct {
	SessionID    string        `json:"sessionId"`
	Timestamp    time.Time     `json:"timestamp"`
	Metadata     Metadata      `json:"metadata"`
	Interactions []Interaction `json:"interactions"`

	loaded bool
}

// Loaded reports whether this Session came from Load (vs. being built
// in-memory), mirroring the teacher's pattern of flagging
// recorded-vs-synthetic data.
func (s *Session) Loaded() bool { return s.loaded }

// wireMetadata is Metadata's JSON shape: named fields plus whatever
// extra keys the recorder happened to include.
type wireMetadata struct {
	Tags        []string  `json:"tags,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Environment string    `json:"environment,omitempty"`
	Creator     string    `json:"creator,omitempty"`
}

// wireMetadataYAML mirrors wireMetadata for the YAML encoding (spec
// §6.1 session files may be YAML instead of JSON).
type wireMetadataYAML struct {
	Tags        []string  `yaml:"tags,omitempty"`
	Description string    `yaml:"description,omitempty"`
	CreatedAt   time.Time `yaml:"createdAt"`
	Environment string    `yaml:"environment,omitempty"`
	Creator     string    `yaml:"creator,omitempty"`
}

// MarshalJSON flattens Extra alongside the named metadata fields.
func (m Metadata) MarshalJSON() ([]byte, error) {
	base := map[string]any{}
	for k, v := range m.Extra {
		base[k] = v
	}
	if len(m.Tags) > 0 {
		base["tags"] = m.Tags
	}
	if m.Description != "" {
		base["description"] = m.Description
	}
	if !m.CreatedAt.IsZero() {
		base["createdAt"] = m.CreatedAt
	}
	if m.Environment != "" {
		base["environment"] = m.Environment
	}
	if m.Creator != "" {
		base["creator"] = m.Creator
	}
	return json.Marshal(base)
}

// UnmarshalJSON captures named fields into their typed slots and
// everything else into Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var named wireMetadata
	if err := json.Unmarshal(data, &named); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range []string{"tags", "description", "createdAt", "environment", "creator"} {
		delete(raw, known)
	}
	m.Tags = named.Tags
	m.Description = named.Description
	m.CreatedAt = named.CreatedAt
	m.Environment = named.Environment
	m.Creator = named.Creator
	m.Extra = raw
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML-formatted session files.
func (m Metadata) MarshalYAML() (any, error) {
	base := map[string]any{}
	for k, v := range m.Extra {
		base[k] = v
	}
	if len(m.Tags) > 0 {
		base["tags"] = m.Tags
	}
	if m.Description != "" {
		base["description"] = m.Description
	}
	if !m.CreatedAt.IsZero() {
		base["createdAt"] = m.CreatedAt
	}
	if m.Environment != "" {
		base["environment"] = m.Environment
	}
	if m.Creator != "" {
		base["creator"] = m.Creator
	}
	return base, nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML-formatted session files.
func (m *Metadata) UnmarshalYAML(value *yaml.Node) error {
	var named wireMetadataYAML
	if err := value.Decode(&named); err != nil {
		return err
	}
	var raw map[string]any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	for _, known := range []string{"tags", "description", "createdAt", "environment", "creator"} {
		delete(raw, known)
	}
	m.Tags = named.Tags
	m.Description = named.Description
	m.CreatedAt = named.CreatedAt
	m.Environment = named.Environment
	m.Creator = named.Creator
	m.Extra = raw
	return nil
}

// Load reads a session from a JSON or YAML file (YAML when the name
// ends in .yaml or .yml), decompressing it first when the name ends in
// .zst. The session is marked loaded
// (spec §3: "Immutable once loaded" — enforced by convention: callers
// must not mutate Interactions after Load returns; Retag is the one
// sanctioned exception, spec §6.3's `tag` command).
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if isZstdCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("session: zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var s Session
	if isYAML(path) {
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("session: decode %s: %w", path, err)
		}
	} else if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", path, err)
	}
	s.loaded = true
	return &s, nil
}

// Save writes the session, optionally zstd-compressed when path ends
// in ".zst" (spec's optional compressed storage knob), in either JSON
// (the default) or YAML when path's base name ends in ".yaml"/".yml".
func Save(path string, s *Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("session: create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if isZstdCompressed(path) {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("session: zstd writer: %w", err)
		}
		w = enc
	}

	var b []byte
	if isYAML(path) {
		b, err = yaml.Marshal(s)
	} else {
		b, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}

func isZstdCompressed(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".zst"
}

// isYAML strips a trailing ".zst" (if any) and checks the remaining
// extension, so "session.yaml.zst" is recognized same as "session.yaml".
func isYAML(path string) bool {
	base := strings.TrimSuffix(path, ".zst")
	ext := filepath.Ext(base)
	return ext == ".yaml" || ext == ".yml"
}

// Retag replaces the tag set of every interaction matching filter (or
// all interactions if filter is nil), supporting the supplemented
// `tag` CLI command (spec §6.3). This is the one sanctioned mutation
// of a loaded session.
func (s *Session) Retag(tags []string, filter func(Interaction) bool) int {
	n := 0
	for i := range s.Interactions {
		if filter != nil && !filter(s.Interactions[i]) {
			continue
		}
		s.Interactions[i].Tags = append([]string(nil), tags...)
		n++
	}
	return n
}
