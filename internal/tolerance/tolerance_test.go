package tolerance_test

import (
	"testing"

	"github.com/brennhill/replayverify/internal/tolerance"
	"github.com/stretchr/testify/assert"
)

func TestIsTimestampByKeyName(t *testing.T) {
	c := tolerance.TolerantDefaults()
	assert.True(t, c.IsTimestamp("createdAt", "not-a-date", 0))
}

func TestIsTimestampByISOValue(t *testing.T) {
	c := tolerance.Config{}
	assert.True(t, c.IsTimestamp("x", "2023-01-01T12:00:00Z", 0))
	assert.False(t, c.IsTimestamp("x", "hello", 0))
}

func TestIsTimestampByEpochRange(t *testing.T) {
	c := tolerance.Config{}
	now := int64(1700000000000)
	assert.True(t, c.IsTimestamp("x", float64(1690000000000), now))
	assert.False(t, c.IsTimestamp("x", float64(1), now)) // too small to be plausible ms
}

func TestIsTimestampSecondsCutover(t *testing.T) {
	c := tolerance.Config{}
	now := int64(2000000000000)
	// A seconds-denominated epoch value below the cutover is multiplied by 1000.
	assert.True(t, c.IsTimestamp("x", float64(1700000000), now))
}

func TestIsUUIDRequiresKeyAndValueMatch(t *testing.T) {
	c := tolerance.TolerantDefaults()
	assert.True(t, c.IsUUID("id", "550e8400-e29b-41d4-a716-446655440000"))
	assert.True(t, c.IsUUID("userId", "550e8400e29b41d4a716446655440000"))
	assert.False(t, c.IsUUID("name", "550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, c.IsUUID("id", "not-a-uuid"))
}

func TestTimestampsEquivalentWithinDrift(t *testing.T) {
	c := tolerance.Config{TimestampDriftSeconds: 5}
	assert.True(t, c.TimestampsEquivalent("2023-01-01T12:00:00Z", "2023-01-01T12:00:03Z"))
	assert.False(t, c.TimestampsEquivalent("2023-01-01T12:00:00Z", "2023-01-01T12:00:10Z"))
}

func TestZeroDriftRejectsAnyDifference(t *testing.T) {
	c := tolerance.Strict()
	assert.False(t, c.TimestampsEquivalent("2023-01-01T12:00:00Z", "2023-01-01T12:00:01Z"))
}

func TestISOAndEpochMsCompareEqual(t *testing.T) {
	c := tolerance.Config{TimestampDriftSeconds: 1}
	// 2023-01-01T12:00:00Z in epoch ms
	assert.True(t, c.TimestampsEquivalent("2023-01-01T12:00:00Z", float64(1672574400000)))
}

func TestShouldSortArrayDefaults(t *testing.T) {
	allOn := tolerance.Config{SortArrays: true}
	assert.True(t, allOn.ShouldSortArray("anything"))

	scoped := tolerance.Config{SortArrays: true, ArrayFields: []string{"items"}}
	assert.True(t, scoped.ShouldSortArray("items"))
	assert.True(t, scoped.ShouldSortArray("items[0].tags"))
	assert.False(t, scoped.ShouldSortArray("other"))
}

func TestIsIgnoredExactPrefixAndRegex(t *testing.T) {
	c := tolerance.Config{IgnoreFields: []string{"meta.internal", `^debug\..*`}}
	assert.True(t, c.IsIgnored("meta.internal"))
	assert.True(t, c.IsIgnored("meta.internal.nested"))
	assert.True(t, c.IsIgnored("debug.trace"))
	assert.False(t, c.IsIgnored("meta.public"))
}

func TestRedactionSentinel(t *testing.T) {
	assert.True(t, tolerance.IsRedacted("[REDACTED]"))
	assert.False(t, tolerance.IsRedacted("visible"))
}
