package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerr "github.com/mochilabs/tradescore/pkg/errors"
	"github.com/mochilabs/tradescore/pkg/storage/sqlite"
	"github.com/mochilabs/tradescore/strategy"
)

func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()
	db, err := sqlite.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testRun(symbol string, createdAt time.Time) strategy.Run {
	return strategy.Run{
		ID:        uuid.NewString(),
		Name:      "brave-otter",
		Symbol:    symbol,
		State:     strategy.Pending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestRunCreate(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	r := testRun("btc-1mF", time.Now().UTC().Truncate(time.Second))
	created, err := repo.Create(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, r.ID, created.ID)
	assert.Equal(t, r.Symbol, created.Symbol)

	_, err = repo.Create(context.Background(), r)
	assert.ErrorIs(t, err, svcerr.ErrEntityExists)
}

func TestRunGet(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	r := testRun("btc-1mF", time.Now().UTC().Truncate(time.Second))
	_, err := repo.Create(context.Background(), r)
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, strategy.Pending, got.State)
}

func TestRunGet_NotFound(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "nonexistent-id")
	assert.ErrorIs(t, err, svcerr.ErrNotFound)
}

func TestRunUpdate(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	r := testRun("btc-1mF", time.Now().UTC().Truncate(time.Second))
	_, err := repo.Create(context.Background(), r)
	require.NoError(t, err)

	r.State = strategy.Completed
	r.Scenarios = 12
	r.StrategiesIn = 480
	r.StrategiesKept = 36
	r.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Update(context.Background(), r))

	got, err := repo.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, strategy.Completed, got.State)
	assert.Equal(t, 12, got.Scenarios)
	assert.Equal(t, 480, got.StrategiesIn)
	assert.Equal(t, 36, got.StrategiesKept)
}

func TestRunUpdate_NotFound(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	err := repo.Update(context.Background(), testRun("btc-1mF", time.Now().UTC()))
	assert.ErrorIs(t, err, svcerr.ErrNotFound)
}

func TestRunList(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	for i, symbol := range []string{"run-a", "run-b", "run-c"} {
		_, err := repo.Create(context.Background(), testRun(symbol, now.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	got, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, got, 3)
	// Results are ordered by created_at DESC, so run-c is first.
	assert.Equal(t, "run-c", got[0].Symbol)
	assert.Equal(t, "run-a", got[2].Symbol)
}

func TestRunList_Pagination(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	for i := range 5 {
		_, err := repo.Create(context.Background(), testRun("btc-1mF", now.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	page1, total, err := repo.List(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	assert.Len(t, page1, 3)

	page2, total, err := repo.List(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	assert.Len(t, page2, 2)
}

func TestRunDelete(t *testing.T) {
	t.Parallel()
	repo := sqlite.NewRunRepository(newTestDB(t))

	r := testRun("btc-1mF", time.Now().UTC().Truncate(time.Second))
	_, err := repo.Create(context.Background(), r)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), r.ID))
	_, err = repo.Get(context.Background(), r.ID)
	assert.ErrorIs(t, err, svcerr.ErrNotFound)
}
