package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brennhill/replayverify/internal/config"
	"github.com/brennhill/replayverify/internal/judge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreUsable(t *testing.T) {
	d := config.Defaults()
	assert.Equal(t, "default", d.ComparisonMode)
	assert.Equal(t, judge.ModeDefault, d.JudgeMode())
	assert.True(t, d.UseDynamicResponses)
	assert.Equal(t, float64(100), d.Threshold)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targetBaseUrl: http://example.test\ncomparisonMode: strict\nthreshold: 95\n"), 0o644))

	cfg, err := config.LoadFile(config.Defaults(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", cfg.TargetBaseURL)
	assert.Equal(t, judge.ModeStrict, cfg.JudgeMode())
	assert.Equal(t, float64(95), cfg.Threshold)
}

func TestLoadFileNoPathIsNoop(t *testing.T) {
	cfg, err := config.LoadFile(config.Defaults(), "")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestEnvOverridesFile(t *testing.T) {
	base := config.Defaults()
	base.TargetBaseURL = "http://from-file.test"

	getenv := func(k string) string {
		if k == "REPLAYVERIFY_TARGET_BASE_URL" {
			return "http://from-env.test"
		}
		return ""
	}
	cfg := config.LoadEnv(base, getenv)
	assert.Equal(t, "http://from-env.test", cfg.TargetBaseURL)
}

func TestEnvNoDynamicFlag(t *testing.T) {
	base := config.Defaults()
	cfg := config.LoadEnv(base, func(k string) string {
		if k == "REPLAYVERIFY_NO_DYNAMIC" {
			return "true"
		}
		return ""
	})
	assert.False(t, cfg.UseDynamicResponses)
}

func TestToleranceConfigConversion(t *testing.T) {
	cfg := config.Defaults()
	tol := cfg.ToleranceConfig()
	assert.Equal(t, cfg.Tolerance.TimestampDriftSeconds, tol.TimestampDriftSeconds)
	assert.ElementsMatch(t, cfg.Tolerance.UUIDFields, tol.UUIDFields)
}
