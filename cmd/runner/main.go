package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/mochilabs/tradescore/pkg/cloud"
	"github.com/mochilabs/tradescore/pkg/prometheus"
	"github.com/mochilabs/tradescore/pkg/storage"
	"github.com/mochilabs/tradescore/pkg/storage/sqlite"
	"github.com/mochilabs/tradescore/pkg/tracing"
	"github.com/mochilabs/tradescore/runner"
	"github.com/mochilabs/tradescore/runner/middleware"
	"github.com/mochilabs/tradescore/scoring"
)

const (
	svcName         = "runner"
	pathEnv         = ".env"
	shutdownTimeout = 5 * time.Second
)

type envConfig struct {
	LogLevel      string  `env:"RUNNER_LOG_LEVEL"            envDefault:"info"`
	Symbol        string  `env:"RUNNER_SYMBOL"`
	Bucket        string  `env:"RUNNER_BUCKET"               envDefault:"mochi-trade-analysis"`
	Region        string  `env:"RUNNER_AWS_REGION"`
	Profile       string  `env:"RUNNER_AWS_PROFILE"`
	OutputDir     string  `env:"RUNNER_OUTPUT_DIR"           envDefault:"output"`
	Concurrency   int     `env:"RUNNER_DOWNLOAD_CONCURRENCY" envDefault:"4"`
	ScoringConfig string  `env:"RUNNER_SCORING_CONFIG"`
	DBPath        string  `env:"RUNNER_DB_PATH"`
	HTTPPort      string  `env:"RUNNER_HTTP_PORT"            envDefault:"7070"`
	OTELURL       url.URL `env:"RUNNER_OTEL_URL"`
	TraceRatio    float64 `env:"RUNNER_TRACE_RATIO"          envDefault:"1.0"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var symbolFlag string
	flag.StringVar(&symbolFlag, "symbol", "", "The symbol name (e.g. 'btc-1mF')")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}
	if symbolFlag != "" {
		cfg.Symbol = symbolFlag
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	if cfg.Symbol == "" {
		logger.Error("No symbol was provided")

		return errors.New("missing symbol: set RUNNER_SYMBOL or pass --symbol")
	}

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := tracing.NewProvider(ctx, svcName, cfg.OTELURL, cfg.TraceRatio)
		if err != nil {
			logger.Error("Failed to initialize opentelemetry", slog.Any("error", err))

			return err
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				logger.Error("Failed to shut down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	scoringCfg := scoring.DefaultConfig()
	if cfg.ScoringConfig != "" {
		var err error
		scoringCfg, err = scoring.LoadConfig(cfg.ScoringConfig)
		if err != nil {
			logger.Error("Failed to load scoring configuration", slog.String("path", cfg.ScoringConfig), slog.Any("error", err))

			return fmt.Errorf("failed to load scoring configuration: %w", err)
		}
	}

	awsCfg, err := cloud.LoadConfig(ctx, cfg.Region, cfg.Profile)
	if err != nil {
		logger.Error("Failed to load AWS configuration", slog.Any("error", err))

		return err
	}
	objects := cloud.NewObjectStore(s3.NewFromConfig(awsCfg), cfg.Bucket)

	var runs storage.RunRepository
	switch cfg.DBPath {
	case "":
		runs = storage.NewInMemoryRepository()
	default:
		db, err := sqlite.NewDatabase(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open run database", slog.String("path", cfg.DBPath), slog.Any("error", err))

			return fmt.Errorf("failed to open run database: %w", err)
		}
		defer db.Close()
		runs = sqlite.NewRunRepository(db)
	}

	svc := runner.NewService(objects, runs, scoringCfg, runner.Options{
		OutputDir:   cfg.OutputDir,
		Concurrency: cfg.Concurrency,
	})
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics("tradescore", svcName)
	svc = middleware.Metrics(counter, latency, svc)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: makeHandler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Runner HTTP server started", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down HTTP server", slog.Any("error", err))
			}
		}()

		_, err := svc.Run(ctx, cfg.Symbol)

		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))

		return err
	}

	return nil
}

func makeHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "pass",
			"service": svcName,
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
