// Package statistics accumulates per-strategy summary statistics over a
// simulation run's frequency and payoff series.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Series tracks one scalar series (a strategy's frequency or expected payoff
// over ticks) with sum and sum-of-squares accumulators plus the raw values
// for percentile queries.
type Series struct {
	N      int
	Sum    float64
	Sum2   float64
	Values []float64
}

// Add incorporates one observation.
func (s *Series) Add(v float64) {
	s.N++
	s.Sum += v
	s.Sum2 += v * v
	s.Values = append(s.Values, v)
}

// Mean returns the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if s.N == 0 {
		return 0
	}
	return s.Sum / float64(s.N)
}

// Variance returns the sample variance.
func (s *Series) Variance() float64 {
	if s.N < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.Sum2 - float64(s.N)*mean*mean) / float64(s.N-1)
}

// StdDev returns the sample standard deviation.
func (s *Series) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Series) StdError() float64 {
	if s.N == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.N))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Series) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Percentile returns the value at the given percentile (0.0 to 1.0).
func (s *Series) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Median returns the median of the series.
func (s *Series) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Population aggregates the per-strategy frequency and expected-payoff
// series of one population across a run.
type Population struct {
	Frequencies []Series
	Payoffs     []Series
	worstSumErr float64
}

// NewPopulation sizes the accumulators for k strategies.
func NewPopulation(k int) *Population {
	return &Population{
		Frequencies: make([]Series, k),
		Payoffs:     make([]Series, k),
	}
}

// Add records one tick's frequency and payoff vectors.
func (p *Population) Add(freqs, payoffs []float64) {
	var sum float64
	for s, f := range freqs {
		p.Frequencies[s].Add(f)
		sum += f
	}
	for s, v := range payoffs {
		p.Payoffs[s].Add(v)
	}
	if err := math.Abs(sum - 1); err > p.worstSumErr {
		p.worstSumErr = err
	}
}

// Validate checks the internal consistency of what was recorded: every
// tick's frequency vector must have summed to 1 within float tolerance.
func (p *Population) Validate() error {
	if p.worstSumErr > 1e-9 {
		return fmt.Errorf("frequency vector sum drifted from 1 by %g", p.worstSumErr)
	}
	for s := range p.Frequencies {
		if p.Frequencies[s].N != p.Frequencies[0].N {
			return fmt.Errorf("strategy %d has %d observations, strategy 0 has %d",
				s, p.Frequencies[s].N, p.Frequencies[0].N)
		}
	}
	return nil
}
