package template

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HelperFunc implements a named template helper. args are already
// resolved (literals parsed, lookups resolved against the context).
type HelperFunc func(ctx Context, args []any) (any, error)

// Clock abstracts "now" so tests can inject a fixed time instead of
// depending on the wall clock, mirroring the teacher's testhelpers
// pattern of injectable time sources.
type Clock func() time.Time

// RandSource abstracts randomness for deterministic tests.
type RandSource func(min, max int) int

func registerBuiltins(c *Compiler) {
	c.helpers["uuid"] = helperUUID
	c.helpers["now"] = c.helperNow
	c.helpers["timestamp"] = c.helperTimestamp
	c.helpers["random"] = c.helperRandom
	c.helpers["concat"] = helperConcat
}

func helperUUID(_ Context, _ []any) (any, error) {
	return uuid.New().String(), nil
}

func (c *Compiler) helperNow(_ Context, args []any) (any, error) {
	format := time.RFC3339Nano
	if len(args) > 0 {
		if f, ok := args[0].(string); ok && f != "" {
			format = goFormatFor(f)
		}
	}
	return c.clock().Format(format), nil
}

// goFormatFor maps a small set of named/strftime-ish formats to Go's
// reference-time layout; unrecognized formats pass through unchanged,
// letting a caller supply a raw Go layout string directly.
func goFormatFor(name string) string {
	switch name {
	case "iso", "iso8601", "ISO8601":
		return time.RFC3339Nano
	case "date":
		return "2006-01-02"
	case "unix":
		return time.UnixDate
	default:
		return name
	}
}

func (c *Compiler) helperTimestamp(_ Context, _ []any) (any, error) {
	return c.clock().UnixMilli(), nil
}

func (c *Compiler) helperRandom(_ Context, args []any) (any, error) {
	minV, maxV := 0, 100
	if len(args) > 0 {
		if v, ok := toInt(args[0]); ok {
			minV = v
		}
	}
	if len(args) > 1 {
		if v, ok := toInt(args[1]); ok {
			maxV = v
		}
	}
	if maxV < minV {
		minV, maxV = maxV, minV
	}
	// Returned as a string (not int) so a field templated purely as
	// "{{random min max}}" round-trips as a numeric-looking string in
	// the synthesized JSON body, matching the contract-derived
	// templates this engine replays against.
	return strconv.Itoa(c.random(minV, maxV)), nil
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func helperConcat(_ Context, args []any) (any, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(stringify(a))
	}
	return b.String(), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func defaultClock() time.Time { return time.Now() }

func defaultRandom(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.Intn(max-min+1)
}
