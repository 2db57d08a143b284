// Package runner implements the batch trade-analysis pipeline: fetch the
// scenario archives for a symbol, score every scenario, and aggregate the
// surviving strategies into one ranked summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mochilabs/tradescore/pkg/archive"
	"github.com/mochilabs/tradescore/pkg/cloud"
	svcerr "github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/pkg/storage"
	"github.com/mochilabs/tradescore/scoring"
	"github.com/mochilabs/tradescore/strategy"
)

const (
	archivesDir = "archives"
	tradesDir   = "trades"
	summaryDir  = "summary"
	filteredDir = "filtered"

	metricsFile         = "metrics.csv"
	fullSummaryFile     = "full_summary.csv"
	filteredSummaryFile = "filtered_summary.csv"
	aggregatedFile      = "aggregated_filtered_summary.csv"

	defConcurrency = 4
)

var namegen = namegenerator.NewGenerator()

// ScenarioReport summarizes scoring one scenario.
type ScenarioReport struct {
	Scenario        string `json:"scenario"`
	StrategiesIn    int    `json:"strategies_in"`
	StrategiesKept  int    `json:"strategies_kept"`
	FullSummary     string `json:"full_summary"`
	FilteredSummary string `json:"filtered_summary"`
}

type Service interface {
	// Run executes the whole pipeline for a symbol and records it in the
	// run history. The returned run is in a terminal state.
	Run(ctx context.Context, symbol string) (strategy.Run, error)

	// ScoreScenario scores a single scenario metrics file and writes the
	// full and filtered summaries under outDir.
	ScoreScenario(ctx context.Context, scenario, metricsPath, outDir string) (ScenarioReport, error)

	// Aggregate merges every filtered summary below root into one CSV
	// ranked by composite score and reports how many strategies it holds.
	Aggregate(ctx context.Context, root, outPath string) (int, error)

	GetRun(ctx context.Context, id string) (strategy.Run, error)
	ListRuns(ctx context.Context, offset, limit uint64) (strategy.RunPage, error)
}

type Options struct {
	OutputDir   string
	Concurrency int
}

type service struct {
	objects     cloud.ObjectStore
	runs        storage.RunRepository
	cfg         scoring.Config
	outputDir   string
	concurrency int
}

func NewService(objects cloud.ObjectStore, runs storage.RunRepository, cfg scoring.Config, opts Options) Service {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defConcurrency
	}

	return &service{
		objects:     objects,
		runs:        runs,
		cfg:         cfg,
		outputDir:   opts.OutputDir,
		concurrency: concurrency,
	}
}

func (svc *service) Run(ctx context.Context, symbol string) (strategy.Run, error) {
	if symbol == "" {
		return strategy.Run{}, svcerr.ErrEmptySymbol
	}

	now := time.Now().UTC()
	run := strategy.Run{
		ID:        uuid.NewString(),
		Name:      namegen.Generate(),
		Symbol:    symbol,
		State:     strategy.Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	run, err := svc.runs.Create(ctx, run)
	if err != nil {
		return strategy.Run{}, err
	}

	run.State = strategy.Running
	run.StartTime = time.Now().UTC()
	if err := svc.updateRun(ctx, &run); err != nil {
		return run, err
	}

	execErr := svc.execute(ctx, symbol, &run)

	run.FinishTime = time.Now().UTC()
	if execErr != nil {
		run.State = strategy.Failed
		run.Error = execErr.Error()
	} else {
		run.State = strategy.Completed
	}
	if err := svc.updateRun(ctx, &run); err != nil {
		return run, err
	}

	return run, execErr
}

func (svc *service) execute(ctx context.Context, symbol string, run *strategy.Run) error {
	if err := svc.resetOutputDir(); err != nil {
		return err
	}

	keys, err := svc.objects.ListArchives(ctx, symbol)
	if err != nil {
		return err
	}
	sort.Strings(keys)
	run.Scenarios = len(keys)

	symbolDir := filepath.Join(svc.outputDir, symbol)
	if err := os.MkdirAll(filepath.Join(symbolDir, tradesDir), 0o755); err != nil {
		return fmt.Errorf("failed to create trades directory: %w", err)
	}
	if err := svc.fetchArchives(ctx, keys, symbolDir); err != nil {
		return err
	}

	for _, key := range keys {
		scenario := cloud.Scenario(key)
		scenarioDir := filepath.Join(symbolDir, tradesDir, scenario)
		metricsPath := filepath.Join(scenarioDir, metricsFile)
		if _, err := os.Stat(metricsPath); err != nil {
			// Archives without a metrics file carry pre-scored
			// summaries; aggregation picks those up directly.
			continue
		}

		report, err := svc.ScoreScenario(ctx, scenario, metricsPath, scenarioDir)
		if err != nil {
			// A metrics file with no rows skips the scenario, not the run.
			if errors.Is(err, svcerr.ErrNoMetrics) {
				continue
			}

			return err
		}
		run.StrategiesIn += report.StrategiesIn
	}

	kept, err := svc.Aggregate(ctx, filepath.Join(symbolDir, tradesDir), filepath.Join(svc.outputDir, aggregatedFile))
	if err != nil {
		return err
	}
	run.StrategiesKept = kept

	return nil
}

func (svc *service) fetchArchives(ctx context.Context, keys []string, symbolDir string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.concurrency)

	for _, key := range keys {
		g.Go(func() error {
			scenario := cloud.Scenario(key)
			zipPath := filepath.Join(symbolDir, archivesDir, tradesDir, scenario+".zip")
			if err := svc.objects.Download(ctx, key, zipPath); err != nil {
				return err
			}

			return archive.Unzip(zipPath, filepath.Join(symbolDir, tradesDir, scenario))
		})
	}

	return g.Wait()
}

func (svc *service) ScoreScenario(ctx context.Context, scenario, metricsPath, outDir string) (ScenarioReport, error) {
	rows, err := readMetrics(metricsPath)
	if err != nil {
		return ScenarioReport{}, err
	}

	if err := scoring.Composite(rows, svc.cfg.Weights); err != nil {
		return ScenarioReport{}, fmt.Errorf("scenario %s: %w", scenario, err)
	}
	scoring.Sort(rows, true)

	fullPath := filepath.Join(outDir, summaryDir, fullSummaryFile)
	if err := writeSummary(fullPath, rows); err != nil {
		return ScenarioReport{}, err
	}

	kept := scoring.Filter(rows, svc.cfg.Filter)
	scoring.Sort(kept, true)

	filteredPath := filepath.Join(outDir, filteredDir, filteredSummaryFile)
	if err := writeSummary(filteredPath, kept); err != nil {
		return ScenarioReport{}, err
	}

	return ScenarioReport{
		Scenario:        scenario,
		StrategiesIn:    len(rows),
		StrategiesKept:  len(kept),
		FullSummary:     fullPath,
		FilteredSummary: filteredPath,
	}, nil
}

func (svc *service) Aggregate(_ context.Context, root, outPath string) (int, error) {
	var all []strategy.Metrics

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != filteredSummaryFile {
			return nil
		}

		rows, err := readMetrics(path)
		if err != nil {
			return err
		}
		all = append(all, rows...)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if len(all) == 0 {
		return 0, nil
	}

	scoring.Sort(all, false)
	if err := writeSummary(outPath, all); err != nil {
		return 0, err
	}

	return len(all), nil
}

func (svc *service) GetRun(ctx context.Context, id string) (strategy.Run, error) {
	return svc.runs.Get(ctx, id)
}

func (svc *service) ListRuns(ctx context.Context, offset, limit uint64) (strategy.RunPage, error) {
	runs, total, err := svc.runs.List(ctx, offset, limit)
	if err != nil {
		return strategy.RunPage{}, err
	}

	return strategy.RunPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Runs:   runs,
	}, nil
}

func (svc *service) resetOutputDir() error {
	if err := os.RemoveAll(svc.outputDir); err != nil {
		return fmt.Errorf("failed to clear output directory %s: %w", svc.outputDir, err)
	}
	if err := os.MkdirAll(svc.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", svc.outputDir, err)
	}

	return nil
}

func (svc *service) updateRun(ctx context.Context, run *strategy.Run) error {
	run.UpdatedAt = time.Now().UTC()

	return svc.runs.Update(ctx, *run)
}
