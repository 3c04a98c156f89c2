package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Storage implements the interaction, bulk-write and load-run storage
// interfaces on PostgreSQL. A pool connection hands every call its own
// session, so working sets of concurrent callers never collide.
type Storage struct {
	conn pgxIConn
}

var _ store.Storage = (*Storage)(nil)

// NewStorageWithConnection creates a Storage on an existing connection or
// pool.
func NewStorageWithConnection(conn pgxIConn) *Storage {
	return &Storage{conn: conn}
}

// RecreateTable drops and creates t in one transaction.
func (s *Storage) RecreateTable(ctx context.Context, t store.Table) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, t.DropSQL()); err != nil {
		return fmt.Errorf("failed to drop %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(ctx, t.CreateSQL()); err != nil {
		return fmt.Errorf("failed to create %s: %w", t.Name, err)
	}
	return tx.Commit(ctx)
}

// InsertBatch copies rows into t inside its own transaction.
func (s *Storage) InsertBatch(ctx context.Context, t store.Table, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgxv5.Identifier{t.Name}, t.ColumnNames(), pgxv5.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy rows into %s: %w", t.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Debug("[Store][InsertBatch] Copied rows", "table", t.Name, "rows", n)
	return nil
}

// CreateIndex builds the lookup index of t.
func (s *Storage) CreateIndex(ctx context.Context, t store.Table) error {
	if _, err := s.conn.Exec(ctx, t.IndexSQL()); err != nil {
		return fmt.Errorf("failed to create index %s: %w", t.IndexName, err)
	}
	return nil
}
