package simulator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/dynamics"
)

func testEngineConfig() dynamics.Config {
	payoffs := [][]float64{{0, 0}, {1, -1}}
	return dynamics.Config{
		Protocol: dynamics.Protocol{
			Candidates:   dynamics.Direct,
			Decision:     dynamics.Best,
			TieBreak:     dynamics.StickMin,
			Matching:     dynamics.Complete,
			TestSetSize:  2,
			Scheduling:   dynamics.Probabilistic,
			RevisionProb: 0.5,
		},
		Populations: [2]dynamics.PopulationSetup{
			{Payoffs: payoffs, InitialCounts: []int{5, 5}},
			{Payoffs: payoffs, InitialCounts: []int{7, 3}},
		},
		Seed: 321,
	}
}

func TestRunCollectsStats(t *testing.T) {
	sim := New(Config{Engine: testEngineConfig(), Ticks: 20, KeepSeries: true})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Series, 20)
	require.Equal(t, 20, result.Stats(1).Frequencies[0].N)
	require.Equal(t, 2.0, result.TicksPerSecond)
	require.Equal(t, int64(321), result.Seed)
}

func TestRunObserverSeesEveryTick(t *testing.T) {
	var ticks []uint64
	sim := New(Config{
		Engine: testEngineConfig(),
		Ticks:  5,
		OnTick: func(r dynamics.TickReport) { ticks = append(ticks, r.Tick) },
	})
	_, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, ticks)
}

func TestRunAppliesResizeSchedule(t *testing.T) {
	sizes := map[uint64]int{}
	sim := New(Config{
		Engine:  testEngineConfig(),
		Ticks:   10,
		Resizes: []Resize{{Tick: 4, Population: 1, Target: 6}},
		OnTick:  func(r dynamics.TickReport) { sizes[r.Tick] = r.Populations[0].Size },
	})
	_, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, sizes[3])
	require.Equal(t, 6, sizes[4], "resize must land before the scheduled tick runs")
	require.Equal(t, 6, sizes[10])
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := New(Config{Engine: testEngineConfig(), Ticks: 100})
	_, err := sim.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsBadSetup(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Populations[0].InitialCounts = []int{1, 2, 3}
	_, err := New(Config{Engine: cfg, Ticks: 5}).Run(context.Background())
	require.Error(t, err)

	_, err = New(Config{Engine: testEngineConfig(), Ticks: 0}).Run(context.Background())
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	sim := New(Config{Engine: testEngineConfig(), Ticks: 3, KeepSeries: true})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, WriteCSV(path, result.Series))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus 3 ticks x 2 populations x 2 strategies.
	require.Len(t, lines, 1+3*2*2)
	require.Equal(t, "tick,population,strategy,frequency,expected_payoff", lines[0])
}

func TestWriteJSON(t *testing.T) {
	sim := New(Config{Engine: testEngineConfig(), Ticks: 2})
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, WriteJSON(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"seed": 321`)
}
