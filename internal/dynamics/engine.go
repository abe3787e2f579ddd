// Package dynamics implements the stochastic revision engine: two
// populations of agents repeatedly play a bimatrix game and occasionally
// revise their strategy via a configurable protocol of candidate generation,
// payoff sampling, decision rules and tie-breaking, committed synchronously
// at tick boundaries.
package dynamics

import (
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/evodyn/internal/randutil"
)

// PopulationSetup describes one population's game and initial composition.
// Exactly one of InitialCounts or Size drives initialisation: explicit
// per-strategy counts, or a uniformly random assignment over Size agents.
type PopulationSetup struct {
	// Payoffs is the K_own x K_opp payoff table, rows indexed by own
	// strategy, columns by opponent strategy.
	Payoffs [][]float64
	// InitialCounts gives the number of agents starting on each strategy.
	// Its length must match the payoff matrix's row count.
	InitialCounts []int
	// Size is the population size for random initialisation, used only
	// when InitialCounts is nil.
	Size int
}

// Config is everything needed to construct an Engine.
type Config struct {
	Protocol    Protocol
	Populations [2]PopulationSetup
	Seed        int64
}

// Engine drives the simulation. Construct with New, advance with Step,
// resize populations between ticks with Resize.
type Engine struct {
	protocol Protocol
	seed     int64
	rng      *rand.Rand // main sequential stream: scheduling, walks, resize
	tick     uint64

	pops     [2]*Population
	matrices [2]*PayoffMatrix
	walks    [2]*randomWalkState // nil unless best + random-walk

	workers int
	logger  *log.Logger

	logitOverflows atomic.Uint64
	overflowWarned atomic.Bool
}

// Option customises engine construction.
type Option func(*Engine)

// WithLogger attaches a logger; by default the engine is silent.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithWorkers enables parallel reviser evaluation with the given worker
// count. The trajectory is identical to sequential evaluation because every
// reviser draws from its own deterministic substream.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New validates the configuration and builds an engine. Validation failures
// abort setup; no partially initialised engine is returned.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protocol: %w", err)
	}
	e := &Engine{
		protocol: cfg.Protocol,
		seed:     cfg.Seed,
		rng:      randutil.New(cfg.Seed),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := 0; i < 2; i++ {
		m, err := NewPayoffMatrix(cfg.Populations[i].Payoffs)
		if err != nil {
			return nil, fmt.Errorf("population %d: %w", i+1, err)
		}
		e.matrices[i] = m
	}
	if e.matrices[0].Cols() != e.matrices[1].Rows() || e.matrices[1].Cols() != e.matrices[0].Rows() {
		return nil, fmt.Errorf("payoff matrices disagree on strategy counts: population 1 is %dx%d, population 2 is %dx%d",
			e.matrices[0].Rows(), e.matrices[0].Cols(), e.matrices[1].Rows(), e.matrices[1].Cols())
	}

	for i := 0; i < 2; i++ {
		setup := cfg.Populations[i]
		var pop *Population
		var err error
		if setup.InitialCounts != nil {
			if len(setup.InitialCounts) != e.matrices[i].Rows() {
				return nil, fmt.Errorf("population %d: %d initial counts for a %d-row payoff matrix",
					i+1, len(setup.InitialCounts), e.matrices[i].Rows())
			}
			pop, err = newPopulation(i+1, setup.InitialCounts)
			if err == nil && pop.Size() == 0 {
				err = fmt.Errorf("population %d: initial counts sum to zero", i+1)
			}
		} else {
			pop, err = newRandomPopulation(i+1, e.matrices[i].Rows(), setup.Size, e.rng)
		}
		if err != nil {
			return nil, err
		}
		e.pops[i] = pop
	}

	if e.usesRandomWalk() {
		for i := 0; i < 2; i++ {
			e.walks[i] = newRandomWalkState(e.rng, e.pops[i].NumStrategies(), e.pops[i].Size())
		}
	}
	return e, nil
}

func (e *Engine) usesRandomWalk() bool {
	return e.protocol.Decision == Best && e.protocol.TieBreak == RandomWalk
}

// Population returns the population with id 1 or 2.
func (e *Engine) Population(id int) *Population { return e.pops[id-1] }

// Matrix returns the payoff matrix for population id 1 or 2.
func (e *Engine) Matrix(id int) *PayoffMatrix { return e.matrices[id-1] }

// TickCount returns the number of completed ticks.
func (e *Engine) TickCount() uint64 { return e.tick }

// LogitOverflows returns how many revisions were abandoned to logit weight
// overflow so far.
func (e *Engine) LogitOverflows() uint64 { return e.logitOverflows.Load() }

// Resize grows or shrinks population id to target between ticks. A size
// change rebuilds that population's random-walk state. Must not be called
// while a tick is in progress.
func (e *Engine) Resize(id, target int) error {
	pop := e.pops[id-1]
	changed, err := pop.resize(target, e.rng)
	if err != nil {
		return err
	}
	if changed && e.walks[id-1] != nil {
		e.walks[id-1] = newRandomWalkState(e.rng, pop.NumStrategies(), pop.Size())
	}
	return nil
}

// tickCtx is the immutable pre-tick view every payoff computation reads.
type tickCtx struct {
	tick     uint64
	snaps    [2]snapshot
	expected [2][]float64
}

type reviser struct {
	popIdx int
	agent  *Agent
}

// Step runs one full tick: freeze composition, advance the auxiliary chain,
// select revisers, evaluate them against the frozen snapshot, then commit
// every pending strategy simultaneously. Returns the post-commit report.
func (e *Engine) Step() TickReport {
	e.tick++
	tc := e.beginTick()
	e.advanceWalks()
	revisers := e.selectRevisers()
	e.evaluate(tc, revisers)
	e.pops[0].commit()
	e.pops[1].commit()
	return e.Report()
}

// beginTick snapshots both populations and precomputes per-strategy expected
// payoffs against the frozen opposing composition.
func (e *Engine) beginTick() *tickCtx {
	tc := &tickCtx{tick: e.tick}
	for i := 0; i < 2; i++ {
		tc.snaps[i] = e.pops[i].snapshot()
	}
	for i := 0; i < 2; i++ {
		expected := make([]float64, e.pops[i].NumStrategies())
		for s := range expected {
			expected[s] = e.matrices[i].Expected(s, tc.snaps[1-i].counts)
		}
		tc.expected[i] = expected
	}
	return tc
}

// advanceWalks runs random-walk-speed x population-size chain steps per
// population, only when the active rule consults the chain.
func (e *Engine) advanceWalks() {
	if !e.usesRandomWalk() {
		return
	}
	for i := 0; i < 2; i++ {
		steps := int(e.protocol.RandomWalkSpeed * float64(e.pops[i].Size()))
		for s := 0; s < steps; s++ {
			e.walks[i].advance(e.rng)
		}
	}
}

// selectRevisers picks this tick's revisers from the main stream: every
// agent independently under probabilistic scheduling, or exactly k distinct
// agents from the combined populations under fixed-count (k clamped to the
// total size).
func (e *Engine) selectRevisers() []reviser {
	var out []reviser
	switch e.protocol.Scheduling {
	case Probabilistic:
		p := e.protocol.RevisionProb
		for i := 0; i < 2; i++ {
			for _, a := range e.pops[i].agents {
				if e.rng.Float64() < p {
					out = append(out, reviser{popIdx: i, agent: a})
				}
			}
		}
	case FixedCount:
		n1 := e.pops[0].Size()
		total := n1 + e.pops[1].Size()
		for _, idx := range randutil.Indices(e.rng, total, e.protocol.RevisionCount) {
			if idx < n1 {
				out = append(out, reviser{popIdx: 0, agent: e.pops[0].agents[idx]})
			} else {
				out = append(out, reviser{popIdx: 1, agent: e.pops[1].agents[idx-n1]})
			}
		}
	}
	return out
}

// evaluate computes every selected reviser's pending strategy. Revisers only
// read the frozen snapshot and per-tick memoized payoffs, so they may run
// concurrently; each draws from a substream keyed by tick and agent id, so
// the result is the same for any worker count.
func (e *Engine) evaluate(tc *tickCtx, revisers []reviser) {
	if e.workers > 1 && len(revisers) > 1 {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for _, r := range revisers {
			r := r
			g.Go(func() error {
				e.revise(tc, r.popIdx, r.agent)
				return nil
			})
		}
		// Workers never return errors; Wait is just the commit barrier.
		_ = g.Wait()
		return
	}
	for _, r := range revisers {
		e.revise(tc, r.popIdx, r.agent)
	}
}

// revise computes one agent's pending strategy: mutation first, otherwise
// candidate generation and the configured decision rule.
func (e *Engine) revise(tc *tickCtx, popIdx int, a *Agent) {
	rng := randutil.Substream(e.seed, streamID(streamKindRevision, tc.tick, popIdx, a.id))

	if e.protocol.MutationProb > 0 && rng.Float64() < e.protocol.MutationProb {
		a.next = rng.IntN(e.pops[popIdx].NumStrategies())
		return
	}

	cands := e.buildCandidates(tc, popIdx, a, rng)
	next, err := e.decide(popIdx, a.current, cands, rng)
	if err != nil {
		e.noteLogitOverflow(popIdx, a)
		a.next = a.current
		return
	}
	a.next = next
}

func (e *Engine) noteLogitOverflow(popIdx int, a *Agent) {
	e.logitOverflows.Add(1)
	if e.overflowWarned.CompareAndSwap(false, true) {
		e.logger.Warn("logit weight overflowed; affected agents keep their strategy",
			"population", popIdx+1, "agent", a.id, "eta", e.protocol.Eta)
	}
}

const (
	streamKindRevision = 1
	streamKindPayoff   = 2
)

// streamID derives a stable substream identifier from what uniquely names a
// draw site: the kind of draw, the tick, and the agent.
func streamID(kind int, tick uint64, popIdx int, agentID uint64) uint64 {
	return tick*0x9e3779b97f4a7c15 ^ agentID*0xbf58476d1ce4e5b9 ^ uint64(popIdx)<<8 ^ uint64(kind)
}
