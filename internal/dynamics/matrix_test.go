package dynamics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/randutil"
)

func TestNewPayoffMatrix_Validation(t *testing.T) {
	_, err := NewPayoffMatrix(nil)
	require.Error(t, err)

	_, err = NewPayoffMatrix([][]float64{{}})
	require.Error(t, err)

	_, err = NewPayoffMatrix([][]float64{{1, 2}, {3}})
	require.Error(t, err)

	m, err := NewPayoffMatrix([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	require.Equal(t, 3, m.Rows())
	require.Equal(t, 2, m.Cols())
	require.Equal(t, 3.0, m.Payoff(1, 0))
}

func TestRateScaling(t *testing.T) {
	tests := []struct {
		name string
		vals [][]float64
		want float64
	}{
		{"constant matrix", [][]float64{{2, 2}, {2, 2}}, 0},
		{"coordination", [][]float64{{0, 0}, {1, -1}}, 1},
		{"wide column", [][]float64{{0, 10}, {3, -5}}, 15},
		{"single row", [][]float64{{1, 7}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewPayoffMatrix(tt.vals)
			require.NoError(t, err)
			require.Equal(t, tt.want, m.RateScaling())
		})
	}
}

func TestExpected(t *testing.T) {
	m, err := NewPayoffMatrix([][]float64{{0, 0}, {1, -1}})
	require.NoError(t, err)

	// Opponent population: 3 on strategy 0, 1 on strategy 1.
	require.Equal(t, 0.0, m.Expected(0, []int{3, 1}))
	require.Equal(t, 0.5, m.Expected(1, []int{3, 1}))

	// Empty opponent population.
	require.Equal(t, 0.0, m.Expected(1, []int{0, 0}))
}

func TestColumnView(t *testing.T) {
	m, err := NewPayoffMatrix([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 3}, m.Column(0))
	require.Equal(t, []float64{2, 4}, m.Column(1))
}

// Sampling the entire opponent population without replacement is an exact
// census, so the sampled payoff must equal the expected payoff.
func TestSampledPayoffMatchesExpectedAtFullCensus(t *testing.T) {
	m, err := NewPayoffMatrix([][]float64{{0.3, -1.2, 4}, {2.5, 0, -0.7}})
	require.NoError(t, err)

	rng := randutil.New(7)
	opp := snapshot{
		strategies: []int{0, 0, 1, 2, 2, 2, 1, 0},
		counts:     []int{3, 2, 3},
	}
	for s := 0; s < 2; s++ {
		counterparts := sampleCounterparts(rng, opp, len(opp.strategies), false)
		require.Len(t, counterparts, len(opp.strategies))
		require.InDelta(t, m.Expected(s, opp.counts), m.SampledPayoff(s, counterparts), 1e-12)
	}
}

func TestSampledPayoffEmptyList(t *testing.T) {
	m, err := NewPayoffMatrix([][]float64{{1, 2}})
	require.NoError(t, err)
	require.Equal(t, 0.0, m.SampledPayoff(0, nil))
}
