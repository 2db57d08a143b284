package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrDelete       = errors.New("delete error")
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_runs",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS runs (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL,
						symbol TEXT NOT NULL,
						state INTEGER NOT NULL DEFAULT 0,
						scenarios INTEGER NOT NULL DEFAULT 0,
						strategies_in INTEGER NOT NULL DEFAULT 0,
						strategies_kept INTEGER NOT NULL DEFAULT 0,
						error TEXT NOT NULL DEFAULT '',
						start_time TIMESTAMP,
						finish_time TIMESTAMP,
						created_at TIMESTAMP NOT NULL,
						updated_at TIMESTAMP NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state)`,
					`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_runs_symbol`,
					`DROP INDEX IF EXISTS idx_runs_state`,
					`DROP INDEX IF EXISTS idx_runs_created_at`,
					`DROP TABLE IF EXISTS runs`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return nil
}
