package scoring

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

var (
	errQuantileRange = errors.New("composite quantile must be in [0, 1)")
	errZeroWeights   = errors.New("all weights are zero")
)

// Weights are the contribution of each standardized metric to the composite
// score. The drawdown-duration weight is negative: shorter is better.
type Weights struct {
	SortinoRatio        float64 `toml:"sortino_ratio"`
	RecoveryFactor      float64 `toml:"recovery_factor"`
	ProfitFactor        float64 `toml:"profit_factor"`
	MaxDrawdownDuration float64 `toml:"max_drawdown_duration"`
	LogTradeCount       float64 `toml:"log_tradecount"`
}

type FilterOptions struct {
	// CompositeQuantile keeps strategies whose composite score is at or
	// above this empirical quantile. Zero disables the filter.
	CompositeQuantile float64 `toml:"composite_quantile"`
	MinProfitFactor   float64 `toml:"min_profit_factor"`
	// MaxDrawdownRatio drops strategies whose max drawdown exceeds this
	// fraction of total profit, evaluated only when total profit is positive.
	MaxDrawdownRatio float64 `toml:"max_drawdown_ratio"`
}

type Config struct {
	Weights Weights       `toml:"weights"`
	Filter  FilterOptions `toml:"filter"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			SortinoRatio:        0.30,
			RecoveryFactor:      0.25,
			ProfitFactor:        0.20,
			MaxDrawdownDuration: -0.15,
			LogTradeCount:       0.10,
		},
		Filter: FilterOptions{
			CompositeQuantile: 0.90,
			MinProfitFactor:   1.2,
			MaxDrawdownRatio:  0.5,
		},
	}
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading scoring config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("error parsing scoring config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := tree.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Filter.CompositeQuantile < 0 || c.Filter.CompositeQuantile >= 1 {
		return errQuantileRange
	}

	w := c.Weights
	if w.SortinoRatio == 0 && w.RecoveryFactor == 0 && w.ProfitFactor == 0 &&
		w.MaxDrawdownDuration == 0 && w.LogTradeCount == 0 {
		return errZeroWeights
	}

	return nil
}
