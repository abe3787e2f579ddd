package dynamics

import (
	rand "math/rand/v2"

	"github.com/lox/evodyn/internal/randutil"
)

// randomWalkState is the auxiliary Markov chain behind the random-walk
// tie-breaker: a frequency vector over strategies for a pool of phantom
// "non-committed" agents. The total count is conserved across advance steps
// and equals the population size at the last rebuild.
type randomWalkState struct {
	counts []int
}

// newRandomWalkState draws a fresh uniform multinomial of size over the
// strategy set.
func newRandomWalkState(rng *rand.Rand, numStrategies, size int) *randomWalkState {
	w := &randomWalkState{counts: make([]int, numStrategies)}
	for i := 0; i < size; i++ {
		w.counts[rng.IntN(numStrategies)]++
	}
	return w
}

// advance runs one step: a phantom imitator leaves its strategy's pool and
// joins a strategy chosen with weight 1+count. The +1 stands in for the
// revising agent itself, which is not part of the phantom pool.
func (w *randomWalkState) advance(rng *rand.Rand) {
	weights := make([]float64, len(w.counts))
	for s, c := range w.counts {
		weights[s] = float64(c)
	}
	imitator := randutil.WeightedIndex(rng, weights)
	if imitator < 0 {
		return
	}
	w.counts[imitator]--
	for s, c := range w.counts {
		weights[s] = float64(1 + c)
	}
	target := randutil.WeightedIndex(rng, weights)
	w.counts[target]++
}

// Sum returns the total phantom count, conserved across advances.
func (w *randomWalkState) Sum() int {
	var total int
	for _, c := range w.counts {
		total += c
	}
	return total
}
