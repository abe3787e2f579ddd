package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/evodyn/cmd/evodyn/shared"
	"github.com/lox/evodyn/internal/config"
	"github.com/lox/evodyn/internal/server"
	"github.com/lox/evodyn/internal/simulator"
)

// ServeCmd runs a scenario and streams tick reports to WebSocket clients.
type ServeCmd struct {
	Scenario   string `kong:"arg,help='Scenario file (HCL)'"`
	Addr       string `kong:"default=':8080',help='Listen address'"`
	IntervalMs int    `kong:"default='100',help='Delay between ticks in milliseconds (0 runs flat out)'"`
	Ticks      int    `kong:"help='Override the scenario tick count'"`
	Seed       *int64 `kong:"help='Override the scenario RNG seed'"`
	Workers    int    `kong:"default='1',help='Parallel reviser evaluation workers'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

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
	}

	engineCfg, err := scenario.EngineConfig()
	if err != nil {
		return err
	}

	s := server.New(logger, quartz.NewReal())
	httpServer := &http.Server{
		Addr:    c.Addr,
		Handler: s.Handler(),
	}

	logger.Info().
		Str("address", c.Addr).
		Int64("seed", scenario.Seed).
		Int("ticks", scenario.Ticks).
		Int("interval_ms", c.IntervalMs).
		Msg("Starting tick-stream server")

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	cfg := simulator.Config{
		Engine:  engineCfg,
		Ticks:   scenario.Ticks,
		Workers: c.Workers,
		Logger:  shared.SetupRunLogger(c.Debug),
	}

	streamDone := make(chan error, 1)
	go func() {
		result, err := s.Stream(ctx, cfg, time.Duration(c.IntervalMs)*time.Millisecond)
		if err == nil {
			logger.Info().
				Float64("ticks_per_second", result.TicksPerSecond).
				Msg("Simulation complete")
		}
		streamDone <- err
	}()

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		return shutdown()
	case err := <-streamDone:
		shutdownErr := shutdown()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return shutdownErr
	case err := <-serverErr:
		return err
	}
}
