// Package scoring ranks trading strategies by a weighted Z-score composite
// of their risk and performance metrics.
package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/strategy"
)

// ZScores standardizes xs around its mean. A zero or undefined standard
// deviation yields all zeros, never NaN or Inf.
func ZScores(xs []float64) []float64 {
	zs := make([]float64, len(xs))
	if len(xs) == 0 {
		return zs
	}

	mean := stat.Mean(xs, nil)
	std := stat.StdDev(xs, nil)
	if std == 0 || math.IsNaN(std) || math.IsNaN(mean) {
		return zs
	}

	for i, x := range xs {
		zs[i] = (x - mean) / std
	}

	return zs
}

// Composite computes the weighted Z-score composite for every row and stores
// it in CompositeScore. Ratio metrics that are NaN or infinite contribute as
// zero; trade counts are clamped to be non-negative before the log transform.
func Composite(rows []strategy.Metrics, w Weights) error {
	if len(rows) == 0 {
		return errors.ErrNoMetrics
	}

	n := len(rows)
	sortino := make([]float64, n)
	recovery := make([]float64, n)
	profit := make([]float64, n)
	duration := make([]float64, n)
	logTrades := make([]float64, n)

	for i, r := range rows {
		sortino[i] = sanitize(r.SortinoRatio)
		recovery[i] = sanitize(r.RecoveryFactor)
		profit[i] = sanitize(r.ProfitFactor)
		duration[i] = sanitize(r.MaxDrawdownDuration)
		logTrades[i] = math.Log(math.Max(sanitize(r.TradeCount), 0) + 1)
	}

	zSortino := ZScores(sortino)
	zRecovery := ZScores(recovery)
	zProfit := ZScores(profit)
	zDuration := ZScores(duration)
	zTrades := ZScores(logTrades)

	for i := range rows {
		rows[i].CompositeScore = zSortino[i]*w.SortinoRatio +
			zRecovery[i]*w.RecoveryFactor +
			zProfit[i]*w.ProfitFactor +
			zDuration[i]*w.MaxDrawdownDuration +
			zTrades[i]*w.LogTradeCount
	}

	return nil
}

// Filter applies the composite-quantile, profit-factor and drawdown-ratio
// criteria in that order and returns the surviving rows.
func Filter(rows []strategy.Metrics, opts FilterOptions) []strategy.Metrics {
	kept := make([]strategy.Metrics, 0, len(rows))
	if len(rows) == 0 {
		return kept
	}

	kept = append(kept, rows...)

	if opts.CompositeQuantile > 0 {
		threshold := scoreQuantile(kept, opts.CompositeQuantile)
		if !math.IsNaN(threshold) {
			kept = keep(kept, func(m strategy.Metrics) bool {
				return m.CompositeScore >= threshold
			})
		}
	}

	if opts.MinProfitFactor > 0 {
		kept = keep(kept, func(m strategy.Metrics) bool {
			return sanitize(m.ProfitFactor) >= opts.MinProfitFactor
		})
	}

	if opts.MaxDrawdownRatio > 0 {
		kept = keep(kept, func(m strategy.Metrics) bool {
			if m.TotalProfit <= 0 || math.IsNaN(m.MaxDrawdown) || math.IsNaN(m.TotalProfit) {
				return true
			}

			return m.MaxDrawdown <= opts.MaxDrawdownRatio*m.TotalProfit
		})
	}

	return kept
}

// Sort orders rows by composite score, NaN scores last.
func Sort(rows []strategy.Metrics, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := rows[i].CompositeScore, rows[j].CompositeScore
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		if descending {
			return si > sj
		}

		return si < sj
	})
}

func scoreQuantile(rows []strategy.Metrics, q float64) float64 {
	scores := make([]float64, len(rows))
	for i, r := range rows {
		scores[i] = r.CompositeScore
	}
	sort.Float64s(scores)

	return stat.Quantile(q, stat.Empirical, scores, nil)
}

func keep(rows []strategy.Metrics, pred func(strategy.Metrics) bool) []strategy.Metrics {
	out := rows[:0]
	for _, r := range rows {
		if pred(r) {
			out = append(out, r)
		}
	}

	return out
}

func sanitize(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}

	return x
}
