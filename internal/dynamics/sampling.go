package dynamics

import (
	rand "math/rand/v2"

	"github.com/lox/evodyn/internal/randutil"
)

// sampleCounterparts draws n counterpart strategies from the opponent
// population's pre-tick snapshot. With replacement each draw is independent
// and duplicates are allowed; without replacement the draws are distinct
// agents and n is clamped to the opponent population size.
func sampleCounterparts(rng *rand.Rand, opp snapshot, n int, withReplacement bool) []int {
	if len(opp.strategies) == 0 || n < 1 {
		return nil
	}
	if withReplacement {
		out := make([]int, n)
		for i := range out {
			out[i] = opp.strategies[rng.IntN(len(opp.strategies))]
		}
		return out
	}
	idxs := randutil.Indices(rng, len(opp.strategies), n)
	out := make([]int, len(idxs))
	for i, idx := range idxs {
		out[i] = opp.strategies[idx]
	}
	return out
}

// counterpartSource prices strategies against sampled counterparts, honouring
// the sample-reuse policy. Under FixedSample one list is drawn on first use
// and shared by every candidate the reviser tests; under Resampled each call
// draws fresh.
type counterpartSource struct {
	rng             *rand.Rand
	opp             snapshot
	matrix          *PayoffMatrix
	trials          int
	withReplacement bool
	reuse           SampleReuse
	fixed           []int
	drawn           bool
}

func (cs *counterpartSource) price(strategy int) float64 {
	if cs.reuse == FixedSample {
		if !cs.drawn {
			cs.fixed = sampleCounterparts(cs.rng, cs.opp, cs.trials, cs.withReplacement)
			cs.drawn = true
		}
		return cs.matrix.SampledPayoff(strategy, cs.fixed)
	}
	return cs.matrix.SampledPayoff(strategy, sampleCounterparts(cs.rng, cs.opp, cs.trials, cs.withReplacement))
}
