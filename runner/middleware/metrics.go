package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/mochilabs/tradescore/runner"
	"github.com/mochilabs/tradescore/strategy"
)

var _ runner.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     runner.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc runner.Service) runner.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Run(ctx context.Context, symbol string) (strategy.Run, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "run").Add(1)
		mm.latency.With("method", "run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Run(ctx, symbol)
}

func (mm *metricsMiddleware) ScoreScenario(ctx context.Context, scenario, metricsPath, outDir string) (runner.ScenarioReport, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "score-scenario").Add(1)
		mm.latency.With("method", "score-scenario").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ScoreScenario(ctx, scenario, metricsPath, outDir)
}

func (mm *metricsMiddleware) Aggregate(ctx context.Context, root, outPath string) (int, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "aggregate").Add(1)
		mm.latency.With("method", "aggregate").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Aggregate(ctx, root, outPath)
}

func (mm *metricsMiddleware) GetRun(ctx context.Context, id string) (strategy.Run, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-run").Add(1)
		mm.latency.With("method", "get-run").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRun(ctx, id)
}

func (mm *metricsMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (strategy.RunPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-runs").Add(1)
		mm.latency.With("method", "list-runs").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRuns(ctx, offset, limit)
}
