package dynamics

// PopulationReport is one population's per-tick output for external
// consumers: its strategy distribution and the expected payoff of each
// strategy against the opposing population's committed composition.
type PopulationReport struct {
	Size            int       `json:"size"`
	Frequencies     []float64 `json:"frequencies"`
	ExpectedPayoffs []float64 `json:"expected_payoffs"`
}

// TickReport is the engine's complete per-tick output.
type TickReport struct {
	Tick           uint64              `json:"tick"`
	TicksPerSecond float64             `json:"ticks_per_second"`
	Populations    [2]PopulationReport `json:"populations"`
}

// Report builds a report from the current committed state.
func (e *Engine) Report() TickReport {
	r := TickReport{
		Tick:           e.tick,
		TicksPerSecond: e.TicksPerSecond(),
	}
	for i := 0; i < 2; i++ {
		expected := make([]float64, e.pops[i].NumStrategies())
		oppCounts := e.pops[1-i].counts
		for s := range expected {
			expected[s] = e.matrices[i].Expected(s, oppCounts)
		}
		r.Populations[i] = PopulationReport{
			Size:            e.pops[i].Size(),
			Frequencies:     e.pops[i].Frequencies(),
			ExpectedPayoffs: expected,
		}
	}
	return r
}

// TicksPerSecond is the time-axis scaling factor derived from the
// scheduling configuration: the reciprocal of the revision probability, or
// the combined population size divided by the fixed revision count. Purely
// presentational; the engine's own logic never consults it.
func (e *Engine) TicksPerSecond() float64 {
	switch e.protocol.Scheduling {
	case Probabilistic:
		if e.protocol.RevisionProb > 0 {
			return 1 / e.protocol.RevisionProb
		}
	case FixedCount:
		if e.protocol.RevisionCount > 0 {
			total := e.pops[0].Size() + e.pops[1].Size()
			return float64(total) / float64(e.protocol.RevisionCount)
		}
	}
	return 0
}
