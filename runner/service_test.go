package runner_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mochilabs/tradescore/pkg/cloud/mocks"
	svcerr "github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/pkg/storage"
	"github.com/mochilabs/tradescore/runner"
	"github.com/mochilabs/tradescore/scoring"
	"github.com/mochilabs/tradescore/strategy"
)

const symbol = "btc-1mF"

const metricsA = `traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit
a1,2.5,3.0,1.5,100,10,120,900
a2,0.4,0.5,0.9,400,80,30,-50
a3,1.8,2.2,2.0,150,25,200,1500
`

const metricsB = `traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit
b1,0.2,0.4,0.8,300,60,20,100
b2,1.1,1.6,1.3,120,30,80,600
`

const prescoredC = `traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit,CompositeScore
c1,1.4,1.9,1.6,90,15,150,1100,0.5
`

func testConfig() scoring.Config {
	cfg := scoring.DefaultConfig()
	cfg.Filter = scoring.FilterOptions{MinProfitFactor: 1.2}

	return cfg
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func stubDownload(t *testing.T, objects *mocks.MockObjectStore, key string, data []byte) {
	t.Helper()

	objects.On("Download", mock.Anything, key, mock.Anything).Run(func(args mock.Arguments) {
		dest := args.String(2)
		require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
		require.NoError(t, os.WriteFile(dest, data, 0o644))
	}).Return(nil)
}

func readSummary(t *testing.T, path string) []strategy.Metrics {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []strategy.Metrics
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))

	return rows
}

func TestRun(t *testing.T) {
	t.Parallel()

	objects := new(mocks.MockObjectStore)
	keys := []string{
		symbol + "/scenA.zip",
		symbol + "/scenB.zip",
		symbol + "/scenC.zip",
	}
	objects.On("ListArchives", mock.Anything, symbol).Return(keys, nil)
	stubDownload(t, objects, keys[0], zipArchive(t, map[string]string{"metrics.csv": metricsA}))
	stubDownload(t, objects, keys[1], zipArchive(t, map[string]string{"metrics.csv": metricsB}))
	stubDownload(t, objects, keys[2], zipArchive(t, map[string]string{"filtered_summary.csv": prescoredC}))

	outputDir := filepath.Join(t.TempDir(), "output")
	runs := storage.NewInMemoryRepository()
	svc := runner.NewService(objects, runs, testConfig(), runner.Options{OutputDir: outputDir, Concurrency: 2})

	run, err := svc.Run(context.Background(), symbol)
	require.NoError(t, err)

	assert.Equal(t, strategy.Completed, run.State)
	assert.Equal(t, 3, run.Scenarios)
	assert.Equal(t, 5, run.StrategiesIn)
	assert.Equal(t, 4, run.StrategiesKept)
	assert.Empty(t, run.Error)
	assert.False(t, run.FinishTime.IsZero())

	stored, err := runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, strategy.Completed, stored.State)

	rows := readSummary(t, filepath.Join(outputDir, "aggregated_filtered_summary.csv"))
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].CompositeScore, rows[i].CompositeScore)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TraderID)
	}
	assert.ElementsMatch(t, []string{"a1", "a3", "b2", "c1"}, ids)

	objects.AssertExpectations(t)
}

func TestRunEmptySymbol(t *testing.T) {
	t.Parallel()

	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(t.TempDir(), "output"),
	})

	_, err := svc.Run(context.Background(), "")
	assert.ErrorIs(t, err, svcerr.ErrEmptySymbol)
}

func TestRunListFailure(t *testing.T) {
	t.Parallel()

	objects := new(mocks.MockObjectStore)
	objects.On("ListArchives", mock.Anything, symbol).Return(nil, errors.New("access denied"))

	runs := storage.NewInMemoryRepository()
	svc := runner.NewService(objects, runs, testConfig(), runner.Options{
		OutputDir: filepath.Join(t.TempDir(), "output"),
	})

	run, err := svc.Run(context.Background(), symbol)
	require.Error(t, err)

	assert.Equal(t, strategy.Failed, run.State)
	assert.Contains(t, run.Error, "access denied")

	stored, err := runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, strategy.Failed, stored.State)
}

func TestScoreScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.csv")
	require.NoError(t, os.WriteFile(metricsPath, []byte(metricsA), 0o644))

	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(dir, "output"),
	})

	report, err := svc.ScoreScenario(context.Background(), "scenA", metricsPath, dir)
	require.NoError(t, err)

	assert.Equal(t, "scenA", report.Scenario)
	assert.Equal(t, 3, report.StrategiesIn)
	assert.Equal(t, 2, report.StrategiesKept)

	full := readSummary(t, report.FullSummary)
	require.Len(t, full, 3)
	for i := 1; i < len(full); i++ {
		assert.GreaterOrEqual(t, full[i-1].CompositeScore, full[i].CompositeScore)
	}

	filtered := readSummary(t, report.FilteredSummary)
	require.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.GreaterOrEqual(t, r.ProfitFactor, 1.2)
	}
}

func TestRunHeaderOnlyMetrics(t *testing.T) {
	t.Parallel()

	header := "traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit\n"
	objects := new(mocks.MockObjectStore)
	keys := []string{symbol + "/scenA.zip", symbol + "/scenB.zip"}
	objects.On("ListArchives", mock.Anything, symbol).Return(keys, nil)
	stubDownload(t, objects, keys[0], zipArchive(t, map[string]string{"metrics.csv": metricsA}))
	stubDownload(t, objects, keys[1], zipArchive(t, map[string]string{"metrics.csv": header}))

	outputDir := filepath.Join(t.TempDir(), "output")
	runs := storage.NewInMemoryRepository()
	svc := runner.NewService(objects, runs, testConfig(), runner.Options{OutputDir: outputDir})

	run, err := svc.Run(context.Background(), symbol)
	require.NoError(t, err)

	assert.Equal(t, strategy.Completed, run.State)
	assert.Equal(t, 2, run.Scenarios)
	assert.Equal(t, 3, run.StrategiesIn)
	assert.Equal(t, 2, run.StrategiesKept)
}

func TestScoreScenarioInvalidMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.csv")
	data := "traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit\nt1,oops,1.0,1.5,100,10,50,900\n"
	require.NoError(t, os.WriteFile(metricsPath, []byte(data), 0o644))

	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(dir, "output"),
	})

	_, err := svc.ScoreScenario(context.Background(), "scenA", metricsPath, dir)
	assert.ErrorIs(t, err, svcerr.ErrInvalidData)
}

func TestScoreScenarioNoMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.csv")
	header := "traderid,sortino_ratio,recovery_factor,profit_factor,max_drawdown,max_drawdown_duration,tradecount,totalprofit\n"
	require.NoError(t, os.WriteFile(metricsPath, []byte(header), 0o644))

	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(dir, "output"),
	})

	_, err := svc.ScoreScenario(context.Background(), "scenA", metricsPath, dir)
	assert.ErrorIs(t, err, svcerr.ErrNoMetrics)
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "trades")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outPath := filepath.Join(dir, "aggregated_filtered_summary.csv")

	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(dir, "output"),
	})

	kept, err := svc.Aggregate(context.Background(), root, outPath)
	require.NoError(t, err)
	assert.Zero(t, kept)

	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAggregateMissingRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := runner.NewService(new(mocks.MockObjectStore), storage.NewInMemoryRepository(), testConfig(), runner.Options{
		OutputDir: filepath.Join(dir, "output"),
	})

	_, err := svc.Aggregate(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "out.csv"))
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	runs := storage.NewInMemoryRepository()
	svc := runner.NewService(new(mocks.MockObjectStore), runs, testConfig(), runner.Options{
		OutputDir: filepath.Join(t.TempDir(), "output"),
	})

	for range 3 {
		objects := new(mocks.MockObjectStore)
		objects.On("ListArchives", mock.Anything, symbol).Return([]string{}, nil)
		inner := runner.NewService(objects, runs, testConfig(), runner.Options{
			OutputDir: filepath.Join(t.TempDir(), "output"),
		})
		_, err := inner.Run(context.Background(), symbol)
		require.NoError(t, err)
	}

	page, err := svc.ListRuns(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), page.Total)
	assert.Len(t, page.Runs, 3)

	got, err := svc.GetRun(context.Background(), page.Runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, page.Runs[0].ID, got.ID)
}
