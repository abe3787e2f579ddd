package randutil

import rand "math/rand/v2"

// WeightedIndex picks an index in [0, len(weights)) with probability
// proportional to its weight, by cumulative-weight inversion. Weights must be
// non-negative. Returns -1 if every weight is zero or the slice is empty.
func WeightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return -1
	}
	target := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	// Float round-off can leave target just past the last bucket.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return -1
}

// Indices returns k distinct indices drawn uniformly from [0, n), using a
// partial Fisher-Yates shuffle. k is clamped to n.
func Indices(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

// IndicesExcluding returns k distinct indices drawn uniformly from [0, n)
// with one index excluded. k is clamped to n-1.
func IndicesExcluding(rng *rand.Rand, n, k, excluded int) []int {
	if excluded < 0 || excluded >= n {
		return Indices(rng, n, k)
	}
	pool := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != excluded {
			pool = append(pool, i)
		}
	}
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
