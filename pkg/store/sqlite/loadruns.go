package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

const startLoadRunSQL = `
INSERT INTO load_runs (id, status, sources, tables, error, started_at)
VALUES (?, ?, ?, '[]', '', ?)
`

const finishLoadRunSQL = `
UPDATE load_runs
SET status = ?, tables = ?, error = ?, finished_at = ?
WHERE id = ?
`

const listLoadRunsSQL = `
SELECT id, status, sources, tables, error, started_at, finished_at
FROM load_runs
ORDER BY started_at DESC, id
LIMIT ?
`

const getLoadRunSQL = `
SELECT id, status, sources, tables, error, started_at, finished_at
FROM load_runs
WHERE id = ?
`

const failStaleLoadRunsSQL = `
UPDATE load_runs
SET status = 'failed', error = ?, finished_at = ?
WHERE status = 'running'
`

// Timestamps are stored as fixed-width UTC text so they order correctly.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (s *Storage) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecContext(ctx, query, args...)
}

// StartLoadRun records run in the running state.
func (s *Storage) StartLoadRun(ctx context.Context, run common.LoadRun) error {
	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return err
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	if _, err := s.exec(ctx, startLoadRunSQL, run.ID, string(common.LoadStatusRunning), string(sources), formatTime(startedAt)); err != nil {
		return fmt.Errorf("failed to insert load run: %w", err)
	}
	return nil
}

// FinishLoadRun stores the outcome of the run with the given id.
func (s *Storage) FinishLoadRun(ctx context.Context, id string, status common.LoadStatus, tables []common.TableLoad, errMsg string) error {
	if tables == nil {
		tables = []common.TableLoad{}
	}
	data, err := json.Marshal(tables)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, finishLoadRunSQL, string(status), string(data), errMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update load run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("load run %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoadRun(row rowScanner) (common.LoadRun, error) {
	var (
		run        common.LoadRun
		status     string
		sources    string
		tables     string
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &status, &sources, &tables, &run.Error, &startedAt, &finishedAt); err != nil {
		return run, err
	}
	run.Status = common.LoadStatus(status)
	if err := json.Unmarshal([]byte(sources), &run.Sources); err != nil {
		return run, fmt.Errorf("failed to decode sources of load run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(tables), &run.Tables); err != nil {
		return run, fmt.Errorf("failed to decode tables of load run %s: %w", run.ID, err)
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return run, err
	}
	run.StartedAt = t
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return run, err
		}
		run.FinishedAt = &t
	}
	return run, nil
}

// ListLoadRuns returns the most recent runs first.
func (s *Storage) ListLoadRuns(ctx context.Context, limit int) ([]common.LoadRun, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, listLoadRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []common.LoadRun
	for rows.Next() {
		run, err := scanLoadRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetLoadRun returns the run with the given id, or nil when it is unknown.
func (s *Storage) GetLoadRun(ctx context.Context, id string) (*common.LoadRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := scanLoadRun(s.db.QueryRowContext(ctx, getLoadRunSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// FailStaleLoadRuns marks every running run as failed.
func (s *Storage) FailStaleLoadRuns(ctx context.Context, reason string) (int64, error) {
	res, err := s.exec(ctx, failStaleLoadRunsSQL, reason, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
