// Package storage persists run history for the analysis pipeline.
package storage

import (
	"context"

	"github.com/mochilabs/tradescore/strategy"
)

type RunRepository interface {
	Create(ctx context.Context, r strategy.Run) (strategy.Run, error)
	Get(ctx context.Context, id string) (strategy.Run, error)
	Update(ctx context.Context, r strategy.Run) error
	List(ctx context.Context, offset, limit uint64) ([]strategy.Run, uint64, error)
	Delete(ctx context.Context, id string) error
}
