package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mochilabs/tradescore/runner"
	"github.com/mochilabs/tradescore/strategy"
)

var _ runner.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    runner.Service
}

func Tracing(tracer trace.Tracer, svc runner.Service) runner.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Run(ctx context.Context, symbol string) (strategy.Run, error) {
	ctx, span := tm.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("symbol", symbol),
	))
	defer span.End()

	return tm.svc.Run(ctx, symbol)
}

func (tm *tracing) ScoreScenario(ctx context.Context, scenario, metricsPath, outDir string) (runner.ScenarioReport, error) {
	ctx, span := tm.tracer.Start(ctx, "score-scenario", trace.WithAttributes(
		attribute.String("scenario", scenario),
		attribute.String("metrics_path", metricsPath),
	))
	defer span.End()

	return tm.svc.ScoreScenario(ctx, scenario, metricsPath, outDir)
}

func (tm *tracing) Aggregate(ctx context.Context, root, outPath string) (int, error) {
	ctx, span := tm.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.String("root", root),
		attribute.String("out_path", outPath),
	))
	defer span.End()

	return tm.svc.Aggregate(ctx, root, outPath)
}

func (tm *tracing) GetRun(ctx context.Context, id string) (strategy.Run, error) {
	ctx, span := tm.tracer.Start(ctx, "get-run", trace.WithAttributes(
		attribute.String("id", id),
	))
	defer span.End()

	return tm.svc.GetRun(ctx, id)
}

func (tm *tracing) ListRuns(ctx context.Context, offset, limit uint64) (strategy.RunPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-runs", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRuns(ctx, offset, limit)
}
