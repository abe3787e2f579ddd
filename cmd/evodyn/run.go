package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lox/evodyn/cmd/evodyn/shared"
	"github.com/lox/evodyn/internal/config"
	"github.com/lox/evodyn/internal/display"
	"github.com/lox/evodyn/internal/simulator"
)

// RunCmd runs a scenario to completion and prints summary statistics.
type RunCmd struct {
	Scenario string   `kong:"arg,help='Scenario file (HCL)'"`
	Ticks    int      `kong:"help='Override the scenario tick count'"`
	Seed     *int64   `kong:"help='Override the scenario RNG seed'"`
	Workers  int      `kong:"default='1',help='Parallel reviser evaluation workers'"`
	Resize   []string `kong:"help='Schedule a population resize as TICK:POP:SIZE (repeatable)'"`
	CSV      string   `kong:"help='Write the per-tick series to a CSV file'"`
	JSON     string   `kong:"help='Write the full result to a JSON file'"`
	Progress int      `kong:"default='0',help='Print a frequency bar every N ticks (0 disables)'"`
	Debug    bool     `kong:"help='Enable debug logging'"`
}

func (c *RunCmd) Run() error {
	logger := shared.SetupRunLogger(c.Debug)

	scenario, err := config.Load(c.Scenario)
	if err != nil {
		return err
	}
	if c.Ticks > 0 {
		scenario.Ticks = c.Ticks
	}
	if c.Seed != nil {
		scenario.Seed = *c.Seed
	}
	if scenario.Seed == 0 {
		scenario.Seed = time.Now().UnixNano()
		logger.Info("using random seed", "seed", scenario.Seed)
	}

	engineCfg, err := scenario.EngineConfig()
	if err != nil {
		return err
	}

	resizes, err := parseResizes(c.Resize)
	if err != nil {
		return err
	}

	cfg := simulator.Config{
		Engine:     engineCfg,
		Ticks:      scenario.Ticks,
		Workers:    c.Workers,
		Resizes:    resizes,
		Logger:     logger,
		KeepSeries: c.CSV != "" || c.JSON != "",
	}
	if c.Progress > 0 {
		monitor := display.NewMonitor(os.Stdout, c.Progress)
		cfg.OnTick = monitor.OnTick
	}

	ctx := shared.SetupSignalHandler()
	result, err := simulator.New(cfg).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(result)

	if c.CSV != "" {
		if err := simulator.WriteCSV(c.CSV, result.Series); err != nil {
			return err
		}
	}
	if c.JSON != "" {
		if err := simulator.WriteJSON(c.JSON, result); err != nil {
			return err
		}
	}
	return nil
}

// parseResizes parses TICK:POP:SIZE triples from the command line.
func parseResizes(specs []string) ([]simulator.Resize, error) {
	resizes := make([]simulator.Resize, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("resize %q: want TICK:POP:SIZE", spec)
		}
		tick, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resize %q: bad tick: %w", spec, err)
		}
		pop, err := strconv.Atoi(parts[1])
		if err != nil || (pop != 1 && pop != 2) {
			return nil, fmt.Errorf("resize %q: population must be 1 or 2", spec)
		}
		size, err := strconv.Atoi(parts[2])
		if err != nil || size < 1 {
			return nil, fmt.Errorf("resize %q: bad size", spec)
		}
		resizes = append(resizes, simulator.Resize{Tick: tick, Population: pop, Target: size})
	}
	return resizes, nil
}

func printSummary(result *simulator.Result) {
	fmt.Printf("seed %d  ticks %d  ticks/sec %.4g\n", result.Seed, result.Ticks, result.TicksPerSecond)
	if result.LogitOverflows > 0 {
		fmt.Printf("logit overflows: %d\n", result.LogitOverflows)
	}
	for id := 1; id <= 2; id++ {
		stats := result.Stats(id)
		fmt.Printf("population %d\n", id)
		for s := range stats.Frequencies {
			freq := stats.Frequencies[s]
			lo, hi := freq.ConfidenceInterval95()
			fmt.Printf("  strategy %d  freq %.4f [%.4f, %.4f]  payoff %.4f\n",
				s+1, freq.Mean(), lo, hi, stats.Payoffs[s].Mean())
		}
	}
}
