// Package display renders compact per-tick summaries of a running
// simulation for interactive use.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/evodyn/internal/dynamics"
)

var (
	tickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	popStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

const barWidth = 20

// Monitor prints one line per sampled tick: the tick number and a frequency
// bar per population.
type Monitor struct {
	mu    sync.Mutex
	w     io.Writer
	every int
}

// NewMonitor creates a monitor that prints every nth tick. n < 1 prints
// every tick.
func NewMonitor(w io.Writer, every int) *Monitor {
	if every < 1 {
		every = 1
	}
	return &Monitor{w: w, every: every}
}

// OnTick renders a report if it falls on the sampling interval. Safe to
// call from the simulator's observer hook.
func (m *Monitor) OnTick(report dynamics.TickReport) {
	if report.Tick%uint64(m.every) != 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	b.WriteString(tickStyle.Render(fmt.Sprintf("tick %6d", report.Tick)))
	for i, pop := range report.Populations {
		b.WriteString("  ")
		b.WriteString(popStyle.Render(fmt.Sprintf("p%d", i+1)))
		b.WriteString(" ")
		b.WriteString(barStyle.Render(frequencyBar(pop.Frequencies)))
	}
	fmt.Fprintln(m.w, b.String())
}

// frequencyBar packs a distribution into a fixed-width strip, one run of
// glyphs per strategy, proportional to its frequency.
func frequencyBar(freqs []float64) string {
	glyphs := []rune("█▓▒░▪▫")
	var b strings.Builder
	used := 0
	for s, f := range freqs {
		n := int(f * barWidth)
		if used+n > barWidth {
			n = barWidth - used
		}
		g := glyphs[s%len(glyphs)]
		for i := 0; i < n; i++ {
			b.WriteRune(g)
		}
		used += n
	}
	for used < barWidth {
		b.WriteRune(' ')
		used++
	}
	return b.String()
}
