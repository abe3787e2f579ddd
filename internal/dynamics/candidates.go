package dynamics

import (
	rand "math/rand/v2"

	"github.com/lox/evodyn/internal/randutil"
)

// candidate is one entry of a reviser's evaluation set: a strategy annotated
// with a payoff. Under the imitative protocol the strategy is the imitatee's
// current strategy. The reviser's own entry is always index 0.
type candidate struct {
	strategy int
	payoff   float64
}

// buildCandidates assembles and prices the evaluation set for one reviser.
// rng is the reviser's own stream; memoized agent payoffs under sampled
// matching draw from per-agent substreams instead so results do not depend
// on which reviser prices an agent first.
func (e *Engine) buildCandidates(tc *tickCtx, popIdx int, a *Agent, rng *rand.Rand) []candidate {
	if e.protocol.Candidates == Direct {
		return e.directCandidates(tc, popIdx, a, rng)
	}
	return e.imitativeCandidates(tc, popIdx, a, rng)
}

// directCandidates: the reviser's current strategy plus m-1 other strategies
// drawn without replacement from the rest of its strategy set.
func (e *Engine) directCandidates(tc *tickCtx, popIdx int, a *Agent, rng *rand.Rand) []candidate {
	k := e.pops[popIdx].NumStrategies()
	m := e.testSetSize(k)

	strategies := make([]int, 0, m)
	strategies = append(strategies, a.current)
	if m > 1 {
		strategies = append(strategies, randutil.IndicesExcluding(rng, k, m-1, a.current)...)
	}

	cands := make([]candidate, len(strategies))
	if e.protocol.Matching == Complete {
		for i, s := range strategies {
			cands[i] = candidate{strategy: s, payoff: tc.expected[popIdx][s]}
		}
		return cands
	}
	src := &counterpartSource{
		rng:             rng,
		opp:             tc.snaps[1-popIdx],
		matrix:          e.matrices[popIdx],
		trials:          e.protocol.Trials,
		withReplacement: e.protocol.TrialsWithReplacement,
		reuse:           e.protocol.SampleReuse,
	}
	for i, s := range strategies {
		cands[i] = candidate{strategy: s, payoff: src.price(s)}
	}
	return cands
}

// testSetSize clamps the configured test-set size to the available
// strategies. The proportional rule restricts the set to the reviser plus
// one alternative.
func (e *Engine) testSetSize(numStrategies int) int {
	m := e.protocol.TestSetSize
	if e.protocol.Decision == Proportional {
		m = 2
	}
	if m > numStrategies {
		m = numStrategies
	}
	if m < 1 {
		m = 1
	}
	return m
}

// imitativeCandidates: the reviser itself plus m imitatees. With replacement
// every draw is independent over the configured pool (the whole population
// when self-imitation is permitted, the rest of it otherwise). Without
// replacement the additional draws always exclude the reviser, which is
// already included once.
func (e *Engine) imitativeCandidates(tc *tickCtx, popIdx int, a *Agent, rng *rand.Rand) []candidate {
	pop := e.pops[popIdx]
	m := e.protocol.Imitatees
	if e.protocol.Decision == Proportional {
		m = 1
	}

	imitatees := make([]*Agent, 0, m+1)
	imitatees = append(imitatees, a)

	selfIdx := a.pos

	if e.protocol.ImitateesWithReplacement {
		for i := 0; i < m; i++ {
			if e.protocol.ConsiderImitatingSelf {
				imitatees = append(imitatees, pop.agents[rng.IntN(len(pop.agents))])
				continue
			}
			if len(pop.agents) < 2 {
				break
			}
			idx := rng.IntN(len(pop.agents) - 1)
			if idx >= selfIdx {
				idx++
			}
			imitatees = append(imitatees, pop.agents[idx])
		}
	} else {
		for _, idx := range randutil.IndicesExcluding(rng, len(pop.agents), m, selfIdx) {
			imitatees = append(imitatees, pop.agents[idx])
		}
	}

	cands := make([]candidate, len(imitatees))
	for i, imitatee := range imitatees {
		cands[i] = candidate{
			strategy: imitatee.current,
			payoff:   e.agentPayoff(tc, popIdx, imitatee),
		}
	}
	return cands
}

// agentPayoff prices an agent's current strategy, memoized per tick so an
// agent appearing in several candidate sets is computed once.
func (e *Engine) agentPayoff(tc *tickCtx, popIdx int, a *Agent) float64 {
	return a.payoffFor(tc.tick, func() float64 {
		if e.protocol.Matching == Complete {
			return tc.expected[popIdx][a.current]
		}
		rng := randutil.Substream(e.seed, streamID(streamKindPayoff, tc.tick, popIdx, a.id))
		counterparts := sampleCounterparts(rng, tc.snaps[1-popIdx], e.protocol.Trials, e.protocol.TrialsWithReplacement)
		return e.matrices[popIdx].SampledPayoff(a.current, counterparts)
	})
}
