package judge

// Summary mirrors spec §3's SessionResult.summary.
type Summary struct {
	Total                       int     `json:"total"`
	Compatible                  int     `json:"compatible"`
	Incompatible                int     `json:"incompatible"`
	Errors                      int     `json:"errors"`
	TotalChanges                int     `json:"totalChanges"`
	ToleratedChanges            int     `json:"toleratedChanges"`
	EffectiveChanges            int     `json:"effectiveChanges"`
	CompatibilityScore          float64 `json:"compatibilityScore"`
	EffectiveCompatibilityScore float64 `json:"effectiveCompatibilityScore"`
}

// Accumulator rolls per-interaction ComparisonResults up into a
// Summary, preserving the invariant total = compatible + incompatible
// + errors.
type Accumulator struct {
	total                int
	compatible           int
	incompatible         int
	errored              int
	totalChanges         int
	toleratedChanges     int
	effectiveCompatible  int
}

// Add records one successfully-judged interaction.
func (a *Accumulator) Add(r ComparisonResult) {
	a.total++
	if r.IsCompatible {
		a.compatible++
	} else {
		a.incompatible++
	}
	a.totalChanges += r.TotalChanges()
	a.toleratedChanges += r.BodyDiffs.Tolerated
	if r.IsCompatible || r.EffectiveChanges() == 0 {
		a.effectiveCompatible++
	}
}

// AddError records an interaction that failed to replay (a template
// compile or render error; transport failures are judged as a 500
// response instead); it counts toward total and errors but not toward
// compatible/incompatible.
func (a *Accumulator) AddError() {
	a.total++
	a.errored++
}

// Summary computes the final aggregate per spec §4.E:
//   compatibilityScore = 100 * compatible / total (0 when total = 0)
//   effectiveCompatibilityScore = 100 * effectiveCompatible / total
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Total:             a.total,
		Compatible:        a.compatible,
		Incompatible:      a.incompatible,
		Errors:            a.errored,
		TotalChanges:      a.totalChanges,
		ToleratedChanges:  a.toleratedChanges,
		EffectiveChanges:  a.totalChanges - a.toleratedChanges,
	}
	if s.EffectiveChanges < 0 {
		s.EffectiveChanges = 0
	}
	if a.total > 0 {
		s.CompatibilityScore = 100 * float64(a.compatible) / float64(a.total)
		s.EffectiveCompatibilityScore = 100 * float64(a.effectiveCompatible) / float64(a.total)
	}
	return s
}
