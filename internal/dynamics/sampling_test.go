package dynamics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/randutil"
)

func TestSampleCounterpartsWithoutReplacement(t *testing.T) {
	rng := randutil.New(3)
	opp := snapshot{strategies: []int{0, 1, 2, 3, 4, 5}, counts: []int{1, 1, 1, 1, 1, 1}}

	for trial := 0; trial < 200; trial++ {
		got := sampleCounterparts(rng, opp, 4, false)
		require.Len(t, got, 4)
		// Strategies are unique per agent here, so duplicate strategies
		// would mean duplicate agents.
		seen := map[int]bool{}
		for _, s := range got {
			require.False(t, seen[s], "duplicate agent in without-replacement sample")
			seen[s] = true
		}
	}
}

func TestSampleCounterpartsClampsToPopulation(t *testing.T) {
	rng := randutil.New(3)
	opp := snapshot{strategies: []int{1, 0}, counts: []int{1, 1}}

	got := sampleCounterparts(rng, opp, 50, false)
	require.Len(t, got, 2, "sample may never exceed the opponent population size")
}

func TestSampleCounterpartsWithReplacementAllowsDuplicates(t *testing.T) {
	rng := randutil.New(9)
	opp := snapshot{strategies: []int{0, 1}, counts: []int{1, 1}}

	got := sampleCounterparts(rng, opp, 100, true)
	require.Len(t, got, 100)
	for _, s := range got {
		require.Contains(t, []int{0, 1}, s)
	}
}

func TestSampleCounterpartsEmpty(t *testing.T) {
	rng := randutil.New(1)
	require.Nil(t, sampleCounterparts(rng, snapshot{}, 5, true))
	require.Nil(t, sampleCounterparts(rng, snapshot{strategies: []int{0}}, 0, true))
}

func TestCounterpartSourceFixedReuse(t *testing.T) {
	m, err := NewPayoffMatrix([][]float64{{1, 0}, {0, 1}})
	require.NoError(t, err)
	opp := snapshot{strategies: []int{0, 1, 0, 1, 1, 0, 1, 1}, counts: []int{3, 5}}

	src := &counterpartSource{
		rng:             randutil.New(11),
		opp:             opp,
		matrix:          m,
		trials:          4,
		withReplacement: true,
		reuse:           FixedSample,
	}
	// Under fixed reuse the two strategies are priced against the same
	// counterpart list, so the payoffs must sum to 1 (the matrix is a
	// complementary indicator pair).
	p0 := src.price(0)
	p1 := src.price(1)
	require.InDelta(t, 1.0, p0+p1, 1e-12)
}
