package dynamics

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
)

// Agent is one member of a population. Strategies are double-buffered:
// current is what everyone observes during a tick, next is what the agent
// will play after the commit. Non-revisers keep next == current, which is
// what makes the synchronous update independent of revision order.
type Agent struct {
	id       uint64
	popID    int
	pos      int // index within the population's agent slice
	current  int
	next     int
	mu       sync.Mutex
	payoff   float64
	payoffAt uint64 // tick of last payoff computation, 0 = never
}

// ID returns the agent's stable identifier within its population.
func (a *Agent) ID() uint64 { return a.id }

// Strategy returns the agent's committed strategy.
func (a *Agent) Strategy() int { return a.current }

// payoffFor returns the agent's payoff for this tick, computing it at most
// once per tick. Safe under concurrent candidate evaluation: the first
// caller computes, later callers reuse.
func (a *Agent) payoffFor(tick uint64, compute func() float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.payoffAt != tick {
		a.payoff = compute()
		a.payoffAt = tick
	}
	return a.payoff
}

// Population is one of the two interacting groups. Agents are held in order;
// per-strategy counts are maintained incrementally on commit and resize.
type Population struct {
	id            int // 1 or 2
	numStrategies int
	agents        []*Agent
	counts        []int
	nextAgentID   uint64
}

// newPopulation builds a population from explicit per-strategy counts.
func newPopulation(id int, counts []int) (*Population, error) {
	p := &Population{
		id:            id,
		numStrategies: len(counts),
		counts:        make([]int, len(counts)),
	}
	for s, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("population %d: negative initial count %d for strategy %d", id, c, s)
		}
		for i := 0; i < c; i++ {
			p.addAgent(s)
		}
	}
	return p, nil
}

// newRandomPopulation builds a population of the given size with strategies
// drawn uniformly.
func newRandomPopulation(id, numStrategies, size int, rng *rand.Rand) (*Population, error) {
	if size < 1 {
		return nil, fmt.Errorf("population %d: size must be positive, got %d", id, size)
	}
	p := &Population{
		id:            id,
		numStrategies: numStrategies,
		counts:        make([]int, numStrategies),
	}
	for i := 0; i < size; i++ {
		p.addAgent(rng.IntN(numStrategies))
	}
	return p, nil
}

func (p *Population) addAgent(strategy int) *Agent {
	p.nextAgentID++
	a := &Agent{
		id:      p.nextAgentID,
		popID:   p.id,
		pos:     len(p.agents),
		current: strategy,
		next:    strategy,
	}
	p.agents = append(p.agents, a)
	p.counts[strategy]++
	return a
}

// Size returns the current number of agents.
func (p *Population) Size() int { return len(p.agents) }

// NumStrategies returns K for this population.
func (p *Population) NumStrategies() int { return p.numStrategies }

// Counts returns a copy of the per-strategy counts.
func (p *Population) Counts() []int {
	return append([]int(nil), p.counts...)
}

// Frequencies returns the strategy distribution as a vector summing to 1.
func (p *Population) Frequencies() []float64 {
	freqs := make([]float64, p.numStrategies)
	if len(p.agents) == 0 {
		return freqs
	}
	n := float64(len(p.agents))
	for s, c := range p.counts {
		freqs[s] = float64(c) / n
	}
	return freqs
}

// commit makes every agent's pending strategy current and rebuilds counts.
func (p *Population) commit() {
	for s := range p.counts {
		p.counts[s] = 0
	}
	for _, a := range p.agents {
		a.current = a.next
		p.counts[a.current]++
	}
}

// resize grows or shrinks the population to target. New agents hatch from a
// uniformly chosen existing member and copy only its strategy; removals pick
// victims uniformly without replacement. Returns whether the size changed,
// so callers can rebuild any per-population auxiliary state.
func (p *Population) resize(target int, rng *rand.Rand) (bool, error) {
	if target < 1 {
		return false, fmt.Errorf("population %d: target size must be positive, got %d", p.id, target)
	}
	if target == len(p.agents) {
		return false, nil
	}
	for len(p.agents) < target {
		parent := p.agents[rng.IntN(len(p.agents))]
		p.addAgent(parent.current)
	}
	if len(p.agents) > target {
		doomed := len(p.agents) - target
		// Partial Fisher-Yates over the agent slice, then truncate.
		for i := 0; i < doomed; i++ {
			j := i + rng.IntN(len(p.agents)-i)
			p.agents[i], p.agents[j] = p.agents[j], p.agents[i]
		}
		for _, a := range p.agents[:doomed] {
			p.counts[a.current]--
		}
		p.agents = p.agents[doomed:]
		for i, a := range p.agents {
			a.pos = i
		}
	}
	return true, nil
}

// snapshot captures the committed composition at the start of a tick. All
// payoff computation within the tick reads only this.
type snapshot struct {
	strategies []int
	counts     []int
}

func (p *Population) snapshot() snapshot {
	strategies := make([]int, len(p.agents))
	for i, a := range p.agents {
		strategies[i] = a.current
	}
	return snapshot{strategies: strategies, counts: p.Counts()}
}
