package runner

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/strategy"
)

func readMetrics(path string) ([]strategy.Metrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file %s: %w", path, err)
	}
	defer f.Close()

	var rows []strategy.Metrics
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidData, path, err)
	}

	return rows, nil
}

// writeSummary saves rows as CSV with ratio columns rounded to four decimal
// places. Counts and durations keep their raw values.
func writeSummary(path string, rows []strategy.Metrics) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}

	out := make([]strategy.Metrics, len(rows))
	copy(out, rows)
	for i := range out {
		out[i].SortinoRatio = round4(out[i].SortinoRatio)
		out[i].RecoveryFactor = round4(out[i].RecoveryFactor)
		out[i].ProfitFactor = round4(out[i].ProfitFactor)
		out[i].MaxDrawdown = round4(out[i].MaxDrawdown)
		out[i].TotalProfit = round4(out[i].TotalProfit)
		out[i].CompositeScore = round4(out[i].CompositeScore)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&out, f); err != nil {
		return fmt.Errorf("failed to write summary file %s: %w", path, err)
	}

	return nil
}

func round4(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	return math.Round(x*1e4) / 1e4
}
