// Package output implements the replay report formatters (spec §6.3:
// --format {json|text}), grounded on the teacher's
// cmd/gasoline-cmd/output package's Formatter interface and its
// human/JSON split; the human-facing text formatter renders the
// per-endpoint table (spec §7).
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/brennhill/replayverify/internal/report"
)

// Formatter renders a report.Report to w.
type Formatter interface {
	Format(w io.Writer, r *report.Report) error
}

// JSONFormatter renders the report as indented JSON (spec §6.4).
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, r *report.Report) error {
	b, err := r.ToJSON()
	if err != nil {
		return fmt.Errorf("output: marshal report: %w", err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// TextFormatter renders the human-facing summary (spec §7: the
// per-endpoint table plus incompatibilities/toleratedChanges lists).
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, r *report.Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "session %s (%s mode)\n", r.SessionID, r.ComparisonMode)
	fmt.Fprintf(&sb, "  total=%d compatible=%d incompatible=%d errors=%d\n",
		r.Result.Summary.Total, r.Result.Summary.Compatible, r.Result.Summary.Incompatible, r.Result.Summary.Errors)
	fmt.Fprintf(&sb, "  compatibilityScore=%.1f effectiveCompatibilityScore=%.1f\n\n",
		r.Result.Summary.CompatibilityScore, r.Result.Summary.EffectiveCompatibilityScore)

	if len(r.Endpoints) > 0 {
		sb.WriteString("endpoint                              status  total  tolerated  effective  verdict\n")
		for _, row := range r.Endpoints {
			fmt.Fprintf(&sb, "%-38s %3d/%-3d %6d %10d %10d  %s\n",
				truncate(row.Endpoint, 38), row.RecordedStatus, row.ReplayedStatus,
				row.TotalDiffs, row.ToleratedDiffs, row.EffectiveDiffs, row.Verdict)
		}
		sb.WriteString("\n")
	}

	if len(r.Incompatibilities) > 0 {
		sb.WriteString("incompatibilities:\n")
		for _, inc := range r.Incompatibilities {
			fmt.Fprintf(&sb, "  [%s] %s %s: %s\n", inc.Kind, inc.Endpoint, inc.Path, inc.Reason)
		}
		sb.WriteString("\n")
	}

	if len(r.ToleratedChanges) > 0 {
		sb.WriteString("tolerated changes:\n")
		for _, tc := range r.ToleratedChanges {
			fmt.Fprintf(&sb, "  %s %s: %s\n", tc.Endpoint, tc.Path, tc.Reason)
		}
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// ForFormat resolves the --format flag value to a Formatter.
func ForFormat(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return TextFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("output: unknown format %q (want json or text)", name)
	}
}
