package dynamics

import "fmt"

// PayoffMatrix holds one population's payoff table: rows are own strategies,
// columns are opponent strategies. The transposed view is precomputed so
// opponent-indexed traversals stay cheap.
type PayoffMatrix struct {
	rows, cols  int
	vals        [][]float64
	transposed  [][]float64
	rateScaling float64
}

// NewPayoffMatrix validates and builds a payoff matrix from row-major values.
// The table must be rectangular with at least one row and one column.
func NewPayoffMatrix(vals [][]float64) (*PayoffMatrix, error) {
	if len(vals) == 0 {
		return nil, fmt.Errorf("payoff matrix has no rows")
	}
	cols := len(vals[0])
	if cols == 0 {
		return nil, fmt.Errorf("payoff matrix has no columns")
	}
	m := &PayoffMatrix{
		rows: len(vals),
		cols: cols,
		vals: make([][]float64, len(vals)),
	}
	for i, row := range vals {
		if len(row) != cols {
			return nil, fmt.Errorf("payoff matrix row %d has %d entries, want %d", i, len(row), cols)
		}
		m.vals[i] = append([]float64(nil), row...)
	}
	m.transposed = make([][]float64, cols)
	for j := 0; j < cols; j++ {
		col := make([]float64, m.rows)
		for i := 0; i < m.rows; i++ {
			col[i] = m.vals[i][j]
		}
		m.transposed[j] = col
	}
	m.rateScaling = computeRateScaling(m.transposed)
	return m, nil
}

// rate-scaling = max over columns of (max - min) within the column. Zero iff
// the matrix is uniformly constant, in which case the proportional rule never
// switches.
func computeRateScaling(cols [][]float64) float64 {
	var scale float64
	for _, col := range cols {
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi-lo > scale {
			scale = hi - lo
		}
	}
	return scale
}

// Rows returns the number of own strategies the matrix covers.
func (m *PayoffMatrix) Rows() int { return m.rows }

// Cols returns the number of opponent strategies the matrix covers.
func (m *PayoffMatrix) Cols() int { return m.cols }

// Payoff returns the payoff for playing own against opp.
func (m *PayoffMatrix) Payoff(own, opp int) float64 { return m.vals[own][opp] }

// Column returns the payoffs of every own strategy against a fixed opponent
// strategy, backed by the precomputed transposed view.
func (m *PayoffMatrix) Column(opp int) []float64 { return m.transposed[opp] }

// RateScaling returns the normalisation constant for the proportional rule.
func (m *PayoffMatrix) RateScaling() float64 { return m.rateScaling }

// Expected returns the exact expected payoff of strategy s against an
// opponent population with the given per-strategy counts. Valid only under
// complete matching, where every agent effectively faces the full opponent
// distribution. Returns 0 for an empty opponent population.
func (m *PayoffMatrix) Expected(s int, oppCounts []int) float64 {
	var total int
	for _, c := range oppCounts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var sum float64
	for t, c := range oppCounts {
		if c > 0 {
			sum += m.vals[s][t] * float64(c)
		}
	}
	return sum / float64(total)
}

// SampledPayoff returns the mean payoff of strategy s against the given
// counterpart strategies. Returns 0 for an empty list.
func (m *PayoffMatrix) SampledPayoff(s int, counterparts []int) float64 {
	if len(counterparts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range counterparts {
		sum += m.vals[s][t]
	}
	return sum / float64(len(counterparts))
}
