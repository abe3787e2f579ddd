package main

import (
	"fmt"

	"github.com/lox/evodyn/internal/config"
	"github.com/lox/evodyn/internal/dynamics"
)

// ValidateCmd checks a scenario file and the engine configuration it
// resolves to, without running any ticks.
type ValidateCmd struct {
	Scenario string `kong:"arg,help='Scenario file (HCL)'"`
}

func (c *ValidateCmd) Run() error {
	scenario, err := config.Load(c.Scenario)
	if err != nil {
		return err
	}
	cfg, err := scenario.EngineConfig()
	if err != nil {
		return err
	}
	engine, err := dynamics.New(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s: ok (ticks %d, model seconds %.4g)\n",
		c.Scenario, scenario.Ticks, float64(scenario.Ticks)/engine.TicksPerSecond())
	return nil
}
