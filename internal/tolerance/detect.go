package tolerance

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// isoTimestampRegex matches ISO-8601 YYYY-MM-DDTHH:MM:SS[.fff][Z] —
// adapted from the teacher's clusterTimestampRegex
// (internal/session/verify.go), which used the same pattern to cluster
// log lines across runs rather than to tolerate drift.
var isoTimestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?$`)

// uuidLikeRegex matches the canonical UUID shape with optional hyphens
// — adapted from the teacher's clusterUUIDRegex (same file), which
// required hyphens; spec §4.C additionally allows them to be absent.
var uuidLikeRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}$`)

const (
	plausibleMsFloor = 946684800000 // 2000-01-01T00:00:00Z in ms
	secondsVsMsCutover = 4102444800 // 2100-01-01T00:00:00Z in seconds
)

// IsTimestamp reports whether (key, value) looks like a timestamp per
// spec §4.C: key-name match, ISO-8601 string match, or plausible
// millisecond/second epoch range.
func (c *Config) IsTimestamp(key string, value any, nowMs int64) bool {
	c.compile()
	lowerKey := strings.ToLower(key)
	for _, frag := range c.TimestampFields {
		if strings.Contains(lowerKey, strings.ToLower(frag)) {
			return true
		}
	}
	switch v := value.(type) {
	case string:
		return isoTimestampRegex.MatchString(v)
	case float64:
		ms := toMillis(v)
		return ms >= plausibleMsFloor && ms <= float64(nowMs)
	}
	return false
}

// toMillis converts a numeric timestamp to milliseconds, treating
// values below the seconds/ms cutover as seconds (spec §4.C).
func toMillis(v float64) float64 {
	if v < secondsVsMsCutover {
		return v * 1000
	}
	return v
}

// IsUUID reports whether (key, value) looks like a UUID per spec §4.C:
// key-name match AND value matches the canonical UUID pattern.
func (c *Config) IsUUID(key string, value any) bool {
	c.compile()
	lowerKey := strings.ToLower(key)
	matched := false
	for _, frag := range c.UUIDFields {
		if strings.Contains(lowerKey, strings.ToLower(frag)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	if !uuidLikeRegex.MatchString(s) {
		return false
	}
	_, err := uuid.Parse(normalizeUUIDForParse(s))
	return err == nil
}

// normalizeUUIDForParse inserts hyphens into a bare 32-hex-digit UUID
// so uuid.Parse (which requires the canonical dashed form or the
// "urn:uuid:" form) accepts hyphen-optional input per spec §4.C.
func normalizeUUIDForParse(s string) string {
	if strings.Contains(s, "-") {
		return s
	}
	if len(s) != 32 {
		return s
	}
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
}

// TimestampsEquivalent reports whether two timestamp-like values are
// within TimestampDriftSeconds of each other, after both are converted
// to epoch milliseconds.
func (c *Config) TimestampsEquivalent(a, b any) bool {
	ma, ok := toEpochMillis(a)
	if !ok {
		return false
	}
	mb, ok := toEpochMillis(b)
	if !ok {
		return false
	}
	drift := ma - mb
	if drift < 0 {
		drift = -drift
	}
	return drift <= c.TimestampDriftSeconds*1000
}

func toEpochMillis(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return toMillis(t), true
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return float64(ts.UnixMilli()), true
		}
		if ts, err := time.Parse("2006-01-02T15:04:05", t); err == nil {
			return float64(ts.UnixMilli()), true
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return toMillis(f), true
		}
	}
	return 0, false
}
