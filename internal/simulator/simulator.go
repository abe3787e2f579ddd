// Package simulator runs the revision engine for a fixed number of ticks
// and collects the per-tick outputs and summary statistics a caller or the
// visualization layer consumes.
package simulator

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lox/evodyn/internal/dynamics"
	"github.com/lox/evodyn/internal/statistics"
)

// Resize schedules a population size change applied before the given tick
// runs. Resizes are the only state mutation outside the compute/commit
// cycle and always complete before the tick's composition snapshot.
type Resize struct {
	Tick       uint64
	Population int // 1 or 2
	Target     int
}

// Config holds configuration for running simulations.
type Config struct {
	Engine  dynamics.Config
	Ticks   int
	Workers int
	Resizes []Resize
	Logger  *log.Logger

	// OnTick, when set, observes every report as it is produced. Used by
	// the progress display and the tick-stream server.
	OnTick func(dynamics.TickReport)

	// KeepSeries retains every tick report in the result. Summary
	// statistics are collected either way.
	KeepSeries bool
}

// Result is a completed run.
type Result struct {
	Seed           int64                 `json:"seed"`
	Ticks          int                   `json:"ticks"`
	TicksPerSecond float64               `json:"ticks_per_second"`
	LogitOverflows uint64                `json:"logit_overflows,omitempty"`
	Series         []dynamics.TickReport `json:"series,omitempty"`

	stats [2]*statistics.Population
}

// Stats returns the summary statistics for population id 1 or 2.
func (r *Result) Stats(id int) *statistics.Population { return r.stats[id-1] }

// Simulator runs engine simulations.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration.
func New(config Config) *Simulator {
	return &Simulator{config: config}
}

// Run executes the simulation and returns results. The context is checked
// between ticks; cancellation returns the error with no partial result.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.config
	if cfg.Ticks < 1 {
		return nil, fmt.Errorf("tick count must be positive, got %d", cfg.Ticks)
	}

	opts := []dynamics.Option{}
	if cfg.Logger != nil {
		opts = append(opts, dynamics.WithLogger(cfg.Logger))
	}
	if cfg.Workers > 1 {
		opts = append(opts, dynamics.WithWorkers(cfg.Workers))
	}
	engine, err := dynamics.New(cfg.Engine, opts...)
	if err != nil {
		return nil, fmt.Errorf("engine setup failed: %w", err)
	}

	resizes := append([]Resize(nil), cfg.Resizes...)
	sort.Slice(resizes, func(i, j int) bool { return resizes[i].Tick < resizes[j].Tick })

	result := &Result{
		Seed:           cfg.Engine.Seed,
		Ticks:          cfg.Ticks,
		TicksPerSecond: engine.TicksPerSecond(),
	}
	for i := 0; i < 2; i++ {
		result.stats[i] = statistics.NewPopulation(engine.Population(i + 1).NumStrategies())
	}

	for tick := 1; tick <= cfg.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run cancelled at tick %d: %w", tick, ctx.Err())
		default:
		}

		for len(resizes) > 0 && resizes[0].Tick == uint64(tick) {
			r := resizes[0]
			resizes = resizes[1:]
			if err := engine.Resize(r.Population, r.Target); err != nil {
				return nil, fmt.Errorf("resize before tick %d: %w", tick, err)
			}
			if cfg.Logger != nil {
				cfg.Logger.Debug("resized population",
					"population", r.Population, "target", r.Target, "tick", tick)
			}
		}

		report := engine.Step()
		for i := 0; i < 2; i++ {
			result.stats[i].Add(report.Populations[i].Frequencies, report.Populations[i].ExpectedPayoffs)
		}
		if cfg.KeepSeries {
			result.Series = append(result.Series, report)
		}
		if cfg.OnTick != nil {
			cfg.OnTick(report)
		}
	}

	result.LogitOverflows = engine.LogitOverflows()
	for i := 0; i < 2; i++ {
		if err := result.stats[i].Validate(); err != nil {
			return nil, fmt.Errorf("statistics validation failed for population %d: %w", i+1, err)
		}
	}
	return result, nil
}
