// Package config implements the ambient configuration cascade
// (defaults < file < env < flags), grounded directly on the teacher's
// cmd/gasoline-cmd/config/loader.go — same priority order, adapted
// from CLI-tool configuration to replay-run configuration (tolerance
// settings, target URL, comparison mode, filters).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brennhill/replayverify/internal/judge"
	"github.com/brennhill/replayverify/internal/tolerance"
)

// RunConfig is everything a replay invocation needs beyond the
// session file itself.
type RunConfig struct {
	TargetBaseURL       string            `yaml:"targetBaseUrl"`
	ContractFile        string            `yaml:"contractFile"`
	UseDynamicResponses bool              `yaml:"useDynamicResponses"`
	ComparisonMode      string            `yaml:"comparisonMode"` // "default" | "strict" | "tolerant"
	Threshold           float64           `yaml:"threshold"`
	UnifyAdditions      bool              `yaml:"unifyAdditions"`
	Tolerance           toleranceFile     `yaml:"tolerance"`
	FilterMethods       []string          `yaml:"filterMethods"`
	FilterRoutes        []string          `yaml:"filterRoutes"`
	FilterTags          []string          `yaml:"filterTags"`
	FilterSessionTags   []string          `yaml:"filterSessionTags"`
}

type toleranceFile struct {
	TimestampDriftSeconds float64  `yaml:"timestampDriftSeconds"`
	IgnoreUUIDs           bool     `yaml:"ignoreUUIDs"`
	SortArrays            bool     `yaml:"sortArrays"`
	ArrayFields           []string `yaml:"arrayFields"`
	TimestampFields       []string `yaml:"timestampFields"`
	UUIDFields            []string `yaml:"uuidFields"`
	IgnoreFields          []string `yaml:"ignoreFields"`
	IgnoreHeaders         []string `yaml:"ignoreHeaders"`
}

// Defaults returns the baseline configuration before file/env/flag
// layering is applied.
func Defaults() RunConfig {
	tol := tolerance.TolerantDefaults()
	return RunConfig{
		UseDynamicResponses: true,
		ComparisonMode:      "default",
		Threshold:           100,
		Tolerance: toleranceFile{
			TimestampDriftSeconds: tol.TimestampDriftSeconds,
			IgnoreUUIDs:           tol.IgnoreUUIDs,
			SortArrays:            tol.SortArrays,
			ArrayFields:           tol.ArrayFields,
			TimestampFields:       tol.TimestampFields,
			UUIDFields:            tol.UUIDFields,
			IgnoreFields:          tol.IgnoreFields,
			IgnoreHeaders:         tol.IgnoreHeaders,
		},
	}
}

// LoadFile merges a YAML config file over base, field by field for
// the handful of scalar/slice settings that are present in the file.
func LoadFile(base RunConfig, path string) (RunConfig, error) {
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	var fromFile RunConfig
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return mergeNonZero(base, fromFile), nil
}

// LoadEnv overlays environment variables with the REPLAYVERIFY_
// prefix, following the teacher's env-override convention.
func LoadEnv(base RunConfig, getenv func(string) string) RunConfig {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("REPLAYVERIFY_TARGET_BASE_URL"); v != "" {
		base.TargetBaseURL = v
	}
	if v := getenv("REPLAYVERIFY_CONTRACT_FILE"); v != "" {
		base.ContractFile = v
	}
	if v := getenv("REPLAYVERIFY_COMPARISON_MODE"); v != "" {
		base.ComparisonMode = v
	}
	if v := getenv("REPLAYVERIFY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			base.Threshold = f
		}
	}
	if v := getenv("REPLAYVERIFY_NO_DYNAMIC"); v != "" {
		base.UseDynamicResponses = !isTruthy(v)
	}
	return base
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// mergeNonZero overlays every non-zero-value field of override onto
// base (shallow, field-by-field — this is a config cascade, not a
// generic deep merge).
func mergeNonZero(base, override RunConfig) RunConfig {
	if override.TargetBaseURL != "" {
		base.TargetBaseURL = override.TargetBaseURL
	}
	if override.ContractFile != "" {
		base.ContractFile = override.ContractFile
	}
	if override.ComparisonMode != "" {
		base.ComparisonMode = override.ComparisonMode
	}
	if override.Threshold != 0 {
		base.Threshold = override.Threshold
	}
	if override.UnifyAdditions {
		base.UnifyAdditions = true
	}
	if override.UseDynamicResponses {
		base.UseDynamicResponses = true
	}
	if override.Tolerance.IgnoreUUIDs {
		base.Tolerance.IgnoreUUIDs = true
	}
	if override.Tolerance.SortArrays {
		base.Tolerance.SortArrays = true
	}
	if len(override.FilterMethods) > 0 {
		base.FilterMethods = override.FilterMethods
	}
	if len(override.FilterRoutes) > 0 {
		base.FilterRoutes = override.FilterRoutes
	}
	if len(override.FilterTags) > 0 {
		base.FilterTags = override.FilterTags
	}
	if len(override.FilterSessionTags) > 0 {
		base.FilterSessionTags = override.FilterSessionTags
	}
	if override.Tolerance.TimestampDriftSeconds != 0 {
		base.Tolerance.TimestampDriftSeconds = override.Tolerance.TimestampDriftSeconds
	}
	if len(override.Tolerance.ArrayFields) > 0 {
		base.Tolerance.ArrayFields = override.Tolerance.ArrayFields
	}
	if len(override.Tolerance.TimestampFields) > 0 {
		base.Tolerance.TimestampFields = override.Tolerance.TimestampFields
	}
	if len(override.Tolerance.UUIDFields) > 0 {
		base.Tolerance.UUIDFields = override.Tolerance.UUIDFields
	}
	if len(override.Tolerance.IgnoreFields) > 0 {
		base.Tolerance.IgnoreFields = override.Tolerance.IgnoreFields
	}
	if len(override.Tolerance.IgnoreHeaders) > 0 {
		base.Tolerance.IgnoreHeaders = override.Tolerance.IgnoreHeaders
	}
	return base
}

// ToleranceConfig converts the file-shaped tolerance settings into
// internal/tolerance.Config.
func (c RunConfig) ToleranceConfig() tolerance.Config {
	return tolerance.Config{
		TimestampDriftSeconds: c.Tolerance.TimestampDriftSeconds,
		IgnoreUUIDs:           c.Tolerance.IgnoreUUIDs,
		SortArrays:            c.Tolerance.SortArrays,
		ArrayFields:           c.Tolerance.ArrayFields,
		TimestampFields:       c.Tolerance.TimestampFields,
		UUIDFields:            c.Tolerance.UUIDFields,
		IgnoreFields:          c.Tolerance.IgnoreFields,
		IgnoreHeaders:         c.Tolerance.IgnoreHeaders,
	}
}

// JudgeMode maps the config's string comparisonMode to judge.Mode.
func (c RunConfig) JudgeMode() judge.Mode {
	switch strings.ToLower(c.ComparisonMode) {
	case "strict":
		return judge.ModeStrict
	case "tolerant":
		return judge.ModeTolerant
	default:
		return judge.ModeDefault
	}
}
