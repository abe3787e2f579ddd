package dynamics

import (
	"math"
	rand "math/rand/v2"
	"sort"

	"github.com/lox/evodyn/internal/randutil"
)

// logitOverflowError signals that exp(payoff/eta) left the float64 range
// for at least one candidate. The reviser keeps its strategy for the tick.
type logitOverflowError struct{}

func (logitOverflowError) Error() string { return "logit weight overflow" }

// decide resolves a priced candidate set into the reviser's next strategy.
// cands[0] is always the reviser's own entry. An empty or singleton set
// degenerates to keeping the current strategy (or the sole entry, which is
// the same thing).
func (e *Engine) decide(popIdx int, current int, cands []candidate, rng *rand.Rand) (int, error) {
	if len(cands) == 0 {
		return current, nil
	}
	switch e.protocol.Decision {
	case Best:
		return e.decideBest(popIdx, current, cands, rng), nil
	case Proportional:
		return e.decideProportional(popIdx, current, cands, rng), nil
	case Logit:
		return decideLogit(current, cands, e.protocol.Eta, rng)
	}
	return current, nil
}

// decideBest picks the maximal-payoff candidate, deferring to the configured
// tie-breaker when several distinct strategies share the maximum.
func (e *Engine) decideBest(popIdx int, current int, cands []candidate, rng *rand.Rand) int {
	max := cands[0].payoff
	for _, c := range cands[1:] {
		if c.payoff > max {
			max = c.payoff
		}
	}
	seen := make(map[int]struct{}, len(cands))
	tied := make([]int, 0, len(cands))
	for _, c := range cands {
		if c.payoff == max {
			if _, dup := seen[c.strategy]; !dup {
				seen[c.strategy] = struct{}{}
				tied = append(tied, c.strategy)
			}
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	sort.Ints(tied)
	return breakTie(e.protocol.TieBreak, rng, current, tied, e.walks[popIdx])
}

// decideProportional compares the reviser against one alternative and
// switches to the better strategy with probability proportional to the
// payoff gap, normalised by the matrix's rate-scaling. A zero rate-scaling
// (uniformly constant matrix) never switches.
func (e *Engine) decideProportional(popIdx int, current int, cands []candidate, rng *rand.Rand) int {
	if len(cands) < 2 {
		return current
	}
	scale := e.matrices[popIdx].RateScaling()
	if scale == 0 {
		return current
	}
	own, other := cands[0], cands[1]
	better, worse := own, other
	if other.payoff > own.payoff {
		better, worse = other, own
	}
	if rng.Float64() < (better.payoff-worse.payoff)/scale {
		return better.strategy
	}
	return current
}

// decideLogit picks a candidate with probability proportional to
// exp(payoff/eta). Overflowing weights are a recoverable per-agent failure;
// no max-shift stabilisation is applied because the overflow behaviour is
// part of the rule's defined semantics.
func decideLogit(current int, cands []candidate, eta float64, rng *rand.Rand) (int, error) {
	weights := make([]float64, len(cands))
	for i, c := range cands {
		w := math.Exp(c.payoff / eta)
		if math.IsInf(w, 0) || math.IsNaN(w) {
			return current, logitOverflowError{}
		}
		weights[i] = w
	}
	idx := randutil.WeightedIndex(rng, weights)
	if idx < 0 {
		// All weights underflowed to zero; every candidate is equally
		// (un)attractive.
		idx = rng.IntN(len(cands))
	}
	return cands[idx].strategy, nil
}
