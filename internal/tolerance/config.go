// Package tolerance implements the pure, stateless predicate layer that
// decides whether two differing values are semantically equivalent
// before a difference ever reaches the structural differ (spec §4.C).
package tolerance

import "regexp"

// Config mirrors spec §3's ToleranceConfig.
type Config struct {
	TimestampDriftSeconds float64
	IgnoreUUIDs           bool
	SortArrays            bool
	ArrayFields           []string
	TimestampFields       []string
	UUIDFields            []string
	IgnoreFields          []string
	IgnoreHeaders         []string

	ignoreFieldRegexes []*regexp.Regexp
	ignoreHeaderSet    map[string]struct{}
	compiled           bool
}

// Strict returns the zeroed ToleranceConfig used by comparison mode
// "strict": no drift allowance, no UUID/array/field tolerances.
func Strict() Config {
	return Config{}
}

// TolerantDefaults returns the force-enabled-everything preset used by
// comparison mode "tolerant": drift >= 5s, UUID ignore on, array
// sorting on.
func TolerantDefaults() Config {
	return Config{
		TimestampDriftSeconds: 5,
		IgnoreUUIDs:           true,
		SortArrays:            true,
		TimestampFields:       []string{"time", "date", "created", "updated", "modified", "timestamp", "at"},
		UUIDFields:            []string{"id", "uuid", "guid"},
	}
}

// compile lazily compiles every IgnoreFields entry as an unanchored
// regex (so a plain name also matches any path containing it; entries
// that fail to compile are skipped) and builds the lowercase ignore-
// header set. Safe to call repeatedly; idempotent.
func (c *Config) compile() {
	if c.compiled {
		return
	}
	c.ignoreFieldRegexes = make([]*regexp.Regexp, len(c.IgnoreFields))
	for i, pattern := range c.IgnoreFields {
		if re, err := regexp.Compile(pattern); err == nil {
			c.ignoreFieldRegexes[i] = re
		}
	}
	c.ignoreHeaderSet = make(map[string]struct{}, len(c.IgnoreHeaders))
	for _, h := range c.IgnoreHeaders {
		c.ignoreHeaderSet[lower(h)] = struct{}{}
	}
	c.compiled = true
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
