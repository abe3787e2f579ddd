package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/evodyn/internal/dynamics"
)

func report(tick uint64) dynamics.TickReport {
	var r dynamics.TickReport
	r.Tick = tick
	r.Populations[0] = dynamics.PopulationReport{Frequencies: []float64{0.5, 0.5}}
	r.Populations[1] = dynamics.PopulationReport{Frequencies: []float64{1, 0}}
	return r
}

func TestMonitorSamplesTicks(t *testing.T) {
	var buf strings.Builder
	m := NewMonitor(&buf, 10)

	for tick := uint64(1); tick <= 30; tick++ {
		m.OnTick(report(tick))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "10")
}

func TestFrequencyBarWidth(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
	}{
		{"even split", []float64{0.5, 0.5}},
		{"all one strategy", []float64{1, 0, 0}},
		{"thirds", []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := frequencyBar(tt.freqs)
			require.Equal(t, barWidth, len([]rune(bar)))
		})
	}
}
