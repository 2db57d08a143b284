package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/mochilabs/tradescore/runner"
	"github.com/mochilabs/tradescore/strategy"
)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    runner.Service
}

func Logging(logger *slog.Logger, svc runner.Service) runner.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Run(ctx context.Context, symbol string) (resp strategy.Run, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("symbol", symbol),
				slog.String("id", resp.ID),
				slog.Int("scenarios", resp.Scenarios),
				slog.Int("strategies_kept", resp.StrategiesKept),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Pipeline run failed", args...)

			return
		}
		lm.logger.Info("Pipeline run completed successfully", args...)
	}(time.Now())

	return lm.svc.Run(ctx, symbol)
}

func (lm *loggingMiddleware) ScoreScenario(ctx context.Context, scenario, metricsPath, outDir string) (resp runner.ScenarioReport, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("scenario",
				slog.String("name", scenario),
				slog.Int("strategies_in", resp.StrategiesIn),
				slog.Int("strategies_kept", resp.StrategiesKept),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Score scenario failed", args...)

			return
		}
		lm.logger.Info("Score scenario completed successfully", args...)
	}(time.Now())

	return lm.svc.ScoreScenario(ctx, scenario, metricsPath, outDir)
}

func (lm *loggingMiddleware) Aggregate(ctx context.Context, root, outPath string) (count int, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("root", root),
			slog.String("out_path", outPath),
			slog.Int("strategies", count),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Aggregate summaries failed", args...)

			return
		}
		lm.logger.Info("Aggregate summaries completed successfully", args...)
	}(time.Now())

	return lm.svc.Aggregate(ctx, root, outPath)
}

func (lm *loggingMiddleware) GetRun(ctx context.Context, id string) (resp strategy.Run, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("run",
				slog.String("id", id),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get run failed", args...)

			return
		}
		lm.logger.Info("Get run completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRun(ctx, id)
}

func (lm *loggingMiddleware) ListRuns(ctx context.Context, offset, limit uint64) (resp strategy.RunPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List runs failed", args...)

			return
		}
		lm.logger.Info("List runs completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRuns(ctx, offset, limit)
}
