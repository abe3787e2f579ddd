package dynamics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/randutil"
)

func testEngine(t *testing.T, proto Protocol) *Engine {
	t.Helper()
	e, err := New(Config{
		Protocol: proto,
		Populations: [2]PopulationSetup{
			{Payoffs: [][]float64{{0, 0}, {1, -1}}, InitialCounts: []int{2, 2}},
			{Payoffs: [][]float64{{0, 0}, {1, -1}}, InitialCounts: []int{2, 2}},
		},
		Seed: 99,
	})
	require.NoError(t, err)
	return e
}

func TestDecideBestUniqueMaximum(t *testing.T) {
	e := testEngine(t, Protocol{Decision: Best, TieBreak: StickMin})
	rng := randutil.New(1)

	cands := []candidate{{strategy: 0, payoff: 0.2}, {strategy: 1, payoff: 0.9}}
	next, err := e.decide(0, 0, cands, rng)
	require.NoError(t, err)
	require.Equal(t, 1, next)
}

func TestDecideBestDuplicateCandidatesCollapse(t *testing.T) {
	e := testEngine(t, Protocol{Decision: Best, TieBreak: Uniform})
	rng := randutil.New(1)

	// Imitative sets can contain the same strategy several times; the tied
	// set is over distinct strategies, so a strategy appearing twice at the
	// maximum gets no extra weight over the uniform tie-break.
	cands := []candidate{
		{strategy: 0, payoff: 1},
		{strategy: 1, payoff: 1},
		{strategy: 1, payoff: 1},
	}
	seen := map[int]int{}
	for i := 0; i < 4000; i++ {
		next, err := e.decide(0, 0, cands, rng)
		require.NoError(t, err)
		seen[next]++
	}
	require.Greater(t, seen[0], 1600)
	require.Greater(t, seen[1], 1600)
}

func TestDecideProportionalNeverSwitchesOnConstantMatrix(t *testing.T) {
	e, err := New(Config{
		Protocol: Protocol{Decision: Proportional},
		Populations: [2]PopulationSetup{
			{Payoffs: [][]float64{{3, 3}, {3, 3}}, InitialCounts: []int{2, 2}},
			{Payoffs: [][]float64{{3, 3}, {3, 3}}, InitialCounts: []int{2, 2}},
		},
		Seed: 1,
	})
	require.NoError(t, err)
	rng := randutil.New(1)

	cands := []candidate{{strategy: 0, payoff: 3}, {strategy: 1, payoff: 3}}
	for i := 0; i < 100; i++ {
		next, derr := e.decide(0, 0, cands, rng)
		require.NoError(t, derr)
		require.Equal(t, 0, next, "rate-scaling 0 must be a no-switch policy")
	}
}

func TestDecideProportionalSwitchRate(t *testing.T) {
	// Rate-scaling of [[0,0],[1,-1]] is 1; a payoff gap of 0.5 means the
	// reviser switches to the better strategy with probability 0.5.
	e := testEngine(t, Protocol{Decision: Proportional})
	rng := randutil.New(17)

	cands := []candidate{{strategy: 0, payoff: 0}, {strategy: 1, payoff: 0.5}}
	switched := 0
	for i := 0; i < 10000; i++ {
		next, err := e.decide(0, 0, cands, rng)
		require.NoError(t, err)
		if next == 1 {
			switched++
		}
	}
	require.InDelta(t, 5000, switched, 400)
}

func TestDecideProportionalKeepsWhenBetterAlready(t *testing.T) {
	e := testEngine(t, Protocol{Decision: Proportional})
	rng := randutil.New(17)

	// The reviser already holds the better strategy; whichever branch the
	// probability takes, the outcome is the current strategy.
	cands := []candidate{{strategy: 1, payoff: 0.9}, {strategy: 0, payoff: 0.1}}
	for i := 0; i < 100; i++ {
		next, err := e.decide(0, 1, cands, rng)
		require.NoError(t, err)
		require.Equal(t, 1, next)
	}
}

func TestDecideProportionalSingletonKeeps(t *testing.T) {
	e := testEngine(t, Protocol{Decision: Proportional})
	rng := randutil.New(1)
	next, err := e.decide(0, 0, []candidate{{strategy: 0, payoff: 1}}, rng)
	require.NoError(t, err)
	require.Equal(t, 0, next)
}

func TestDecideLogitHighTemperatureIsUniform(t *testing.T) {
	rng := randutil.New(23)
	cands := []candidate{
		{strategy: 0, payoff: 0},
		{strategy: 1, payoff: 5},
		{strategy: 2, payoff: -3},
	}
	seen := map[int]int{}
	for i := 0; i < 30000; i++ {
		next, err := decideLogit(0, cands, 1000, rng)
		require.NoError(t, err)
		seen[next]++
	}
	// eta >> payoff spread: statistically indistinguishable from uniform.
	for s := 0; s < 3; s++ {
		require.InDelta(t, 10000, seen[s], 600, "strategy %d frequency", s)
	}
}

func TestDecideLogitLowTemperatureApproachesBest(t *testing.T) {
	rng := randutil.New(23)
	cands := []candidate{{strategy: 0, payoff: 0}, {strategy: 1, payoff: 1}}
	for i := 0; i < 200; i++ {
		next, err := decideLogit(0, cands, 0.01, rng)
		require.NoError(t, err)
		require.Equal(t, 1, next)
	}
}

func TestDecideLogitOverflowKeepsCurrent(t *testing.T) {
	rng := randutil.New(1)
	cands := []candidate{{strategy: 0, payoff: 0}, {strategy: 1, payoff: 1e9}}
	next, err := decideLogit(0, cands, 1e-6, rng)
	require.Error(t, err)
	require.Equal(t, 0, next)
}

func TestDecideEmptyCandidateSetKeepsCurrent(t *testing.T) {
	e := testEngine(t, Protocol{Decision: Best, TieBreak: StickMin})
	next, err := e.decide(0, 1, nil, randutil.New(1))
	require.NoError(t, err)
	require.Equal(t, 1, next)
}
