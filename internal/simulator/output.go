package simulator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/lox/evodyn/internal/dynamics"
	"github.com/lox/evodyn/internal/fileutil"
)

// WriteJSON writes the full result atomically as indented JSON.
func WriteJSON(filename string, result *Result) error {
	return fileutil.WriteJSONAtomic(filename, result, 0644)
}

// WriteCSV writes the retained tick series in long form, one row per
// (tick, population, strategy). Requires the run to have kept its series.
func WriteCSV(filename string, series []dynamics.TickReport) error {
	if len(series) == 0 {
		return fmt.Errorf("no tick series to write; run with KeepSeries")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"tick", "population", "strategy", "frequency", "expected_payoff"}); err != nil {
		return err
	}
	for _, report := range series {
		for p, pop := range report.Populations {
			for s := range pop.Frequencies {
				row := []string{
					strconv.FormatUint(report.Tick, 10),
					strconv.Itoa(p + 1),
					strconv.Itoa(s + 1),
					strconv.FormatFloat(pop.Frequencies[s], 'g', -1, 64),
					strconv.FormatFloat(pop.ExpectedPayoffs[s], 'g', -1, 64),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(filename, buf.Bytes(), 0644)
}
