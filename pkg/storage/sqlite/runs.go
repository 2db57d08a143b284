package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	svcerr "github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/pkg/storage"
	"github.com/mochilabs/tradescore/strategy"
)

type runRepo struct {
	db *Database
}

func NewRunRepository(db *Database) storage.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run strategy.Run) (strategy.Run, error) {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, name, symbol, state, scenarios, strategies_in, strategies_kept, error, start_time, finish_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Name,
		run.Symbol,
		run.State,
		run.Scenarios,
		run.StrategiesIn,
		run.StrategiesKept,
		run.Error,
		run.StartTime,
		run.FinishTime,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		var serr sqlite3.Error
		if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
			return strategy.Run{}, fmt.Errorf("%w: %w", svcerr.ErrEntityExists, err)
		}

		return strategy.Run{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return run, nil
}

func (r *runRepo) Get(ctx context.Context, id string) (strategy.Run, error) {
	var run strategy.Run
	if err := r.db.GetContext(ctx, &run, `SELECT id, name, symbol, state, scenarios, strategies_in, strategies_kept, error, start_time, finish_time, created_at, updated_at FROM runs WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return strategy.Run{}, svcerr.ErrNotFound
		}

		return strategy.Run{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return run, nil
}

func (r *runRepo) Update(ctx context.Context, run strategy.Run) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE runs SET state = ?, scenarios = ?, strategies_in = ?, strategies_kept = ?, error = ?, start_time = ?, finish_time = ?, updated_at = ? WHERE id = ?`,
		run.State,
		run.Scenarios,
		run.StrategiesIn,
		run.StrategiesKept,
		run.Error,
		run.StartTime,
		run.FinishTime,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	if affected == 0 {
		return svcerr.ErrNotFound
	}

	return nil
}

func (r *runRepo) List(ctx context.Context, offset, limit uint64) ([]strategy.Run, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM runs"); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var runs []strategy.Run
	if err := r.db.SelectContext(
		ctx,
		&runs,
		`SELECT id, name, symbol, state, scenarios, strategies_in, strategies_kept, error, start_time, finish_time, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit,
		offset,
	); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	if runs == nil {
		runs = []strategy.Run{}
	}

	return runs, total, nil
}

func (r *runRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
