package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

// Storage implements the interaction, bulk-write and load-run storage
// interfaces on a single SQLite file. All calls share one connection and
// are serialized.
type Storage struct {
	db *sql.DB
	mu sync.Mutex
}

var _ store.Storage = (*Storage)(nil)

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

const createLoadRunsSQL = `
CREATE TABLE IF NOT EXISTS load_runs (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    sources     TEXT NOT NULL DEFAULT '{}',
    tables      TEXT NOT NULL DEFAULT '[]',
    error       TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT
)`

// Open opens or creates the database file at path and prepares the
// bookkeeping tables.
func Open(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Temporary tables are per connection.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, createLoadRunsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create load_runs: %w", err)
	}

	logger.Debug("[Store] Opened sqlite database", "path", path)
	return &Storage{db: db}, nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func placeholder(int) string {
	return "?"
}

// withTx runs fn inside a transaction, committing when fn succeeds.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// RecreateTable drops and creates t in one transaction.
func (s *Storage) RecreateTable(ctx context.Context, t store.Table) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, t.DropSQL()); err != nil {
			return fmt.Errorf("failed to drop %s: %w", t.Name, err)
		}
		if _, err := tx.ExecContext(ctx, t.CreateSQL()); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.Name, err)
		}
		return nil
	})
}

// InsertBatch inserts rows into t inside its own transaction.
func (s *Storage) InsertBatch(ctx context.Context, t store.Table, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, t.InsertSQL(placeholder))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", i, t.Name, err)
			}
		}
		return nil
	})
}

// CreateIndex builds the lookup index of t.
func (s *Storage) CreateIndex(ctx context.Context, t store.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, t.IndexSQL()); err != nil {
		return fmt.Errorf("failed to create index %s: %w", t.IndexName, err)
	}
	return nil
}
