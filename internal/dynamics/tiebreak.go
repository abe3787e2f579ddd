package dynamics

import (
	rand "math/rand/v2"

	"github.com/lox/evodyn/internal/randutil"
)

// breakTie resolves a set of distinct tied maximal strategies to one. The
// walk argument is only consulted by the random-walk rule and may be nil for
// the others.
func breakTie(rule TieBreakRule, rng *rand.Rand, current int, tied []int, walk *randomWalkState) int {
	if len(tied) == 1 {
		return tied[0]
	}
	switch rule {
	case StickUniform:
		for _, s := range tied {
			if s == current {
				return current
			}
		}
		return tied[rng.IntN(len(tied))]
	case StickMin:
		min := tied[0]
		for _, s := range tied {
			if s == current {
				return current
			}
			if s < min {
				min = s
			}
		}
		return min
	case Uniform:
		return tied[rng.IntN(len(tied))]
	case RandomWalk:
		weights := make([]float64, len(tied))
		for i, s := range tied {
			weights[i] = float64(1 + walk.counts[s])
		}
		return tied[randutil.WeightedIndex(rng, weights)]
	}
	return current
}
