package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

const startLoadRunSQL = `
INSERT INTO load_runs (id, status, sources, tables, error, started_at)
VALUES ($1, $2, $3, '[]'::jsonb, '', $4)
`

const finishLoadRunSQL = `
UPDATE load_runs
SET status = $2, tables = $3, error = $4, finished_at = now()
WHERE id = $1
`

const listLoadRunsSQL = `
SELECT id, status, sources, tables, error, started_at, finished_at
FROM load_runs
ORDER BY started_at DESC, id
LIMIT $1
`

const getLoadRunSQL = `
SELECT id, status, sources, tables, error, started_at, finished_at
FROM load_runs
WHERE id = $1
`

const failStaleLoadRunsSQL = `
UPDATE load_runs
SET status = 'failed', error = $1, finished_at = now()
WHERE status = 'running'
`

// StartLoadRun records run in the running state.
func (s *Storage) StartLoadRun(ctx context.Context, run common.LoadRun) error {
	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return err
	}
	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	if _, err := s.conn.Exec(ctx, startLoadRunSQL, run.ID, string(common.LoadStatusRunning), sources, startedAt); err != nil {
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
	tag, err := s.conn.Exec(ctx, finishLoadRunSQL, id, string(status), data, errMsg)
	if err != nil {
		return fmt.Errorf("failed to update load run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("load run %s not found", id)
	}
	return nil
}

func scanLoadRun(row pgxv5.Row) (common.LoadRun, error) {
	var (
		run     common.LoadRun
		status  string
		sources []byte
		tables  []byte
	)
	if err := row.Scan(&run.ID, &status, &sources, &tables, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
		return run, err
	}
	run.Status = common.LoadStatus(status)
	if err := json.Unmarshal(sources, &run.Sources); err != nil {
		return run, fmt.Errorf("failed to decode sources of load run %s: %w", run.ID, err)
	}
	if err := json.Unmarshal(tables, &run.Tables); err != nil {
		return run, fmt.Errorf("failed to decode tables of load run %s: %w", run.ID, err)
	}
	return run, nil
}

// ListLoadRuns returns the most recent runs first.
func (s *Storage) ListLoadRuns(ctx context.Context, limit int) ([]common.LoadRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, listLoadRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.LoadRun, error) {
		return scanLoadRun(row)
	})
}

// GetLoadRun returns the run with the given id, or nil when it is unknown.
func (s *Storage) GetLoadRun(ctx context.Context, id string) (*common.LoadRun, error) {
	run, err := scanLoadRun(s.conn.QueryRow(ctx, getLoadRunSQL, id))
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// FailStaleLoadRuns marks every running run as failed.
func (s *Storage) FailStaleLoadRuns(ctx context.Context, reason string) (int64, error) {
	tag, err := s.conn.Exec(ctx, failStaleLoadRunsSQL, reason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
