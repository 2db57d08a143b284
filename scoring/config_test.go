package scoring_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mochilabs/tradescore/scoring"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := scoring.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.30, cfg.Weights.SortinoRatio, 1e-9)
	assert.InDelta(t, -0.15, cfg.Weights.MaxDrawdownDuration, 1e-9)
	assert.InDelta(t, 0.90, cfg.Filter.CompositeQuantile, 1e-9)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[weights]
sortino_ratio = 0.5
recovery_factor = 0.2
profit_factor = 0.2
max_drawdown_duration = -0.05
log_tradecount = 0.05

[filter]
composite_quantile = 0.75
min_profit_factor = 1.5
max_drawdown_ratio = 0.4
`)

	cfg, err := scoring.LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Weights.SortinoRatio, 1e-9)
	assert.InDelta(t, 0.75, cfg.Filter.CompositeQuantile, 1e-9)
	assert.InDelta(t, 1.5, cfg.Filter.MinProfitFactor, 1e-9)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[filter]
min_profit_factor = 2.0
`)

	cfg, err := scoring.LoadConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cfg.Filter.MinProfitFactor, 1e-9)
	// Untouched sections keep their defaults.
	assert.InDelta(t, 0.30, cfg.Weights.SortinoRatio, 1e-9)
	assert.InDelta(t, 0.90, cfg.Filter.CompositeQuantile, 1e-9)
}

func TestLoadConfigInvalidQuantile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[filter]
composite_quantile = 1.0
`)

	_, err := scoring.LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := scoring.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateZeroWeights(t *testing.T) {
	t.Parallel()

	cfg := scoring.Config{}
	assert.Error(t, cfg.Validate())
}
