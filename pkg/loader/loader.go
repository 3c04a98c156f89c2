package loader

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

// LeaseKey is the exclusive-writer lease held for the duration of a bulk load.
const LeaseKey = "bulk-load"

// DefaultBatchSize is the number of rows inserted per transaction.
const DefaultBatchSize = 10000

// SourceOpener opens a source file by path. Implementations may read from
// the local filesystem, object storage or any other byte source.
type SourceOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Locker grants exclusive access to a named resource for the duration of fn.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// BulkLoader streams source files into the store in batched transactions.
type BulkLoader struct {
	writer    store.BulkWriter
	opener    SourceOpener
	locker    Locker
	batchSize int
}

type Option func(*BulkLoader)

// WithBatchSize sets the number of rows per insert transaction.
// Values below 1 keep the default.
func WithBatchSize(n int) Option {
	return func(l *BulkLoader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithLocker runs every load under the LeaseKey lease of locker.
func WithLocker(locker Locker) Option {
	return func(l *BulkLoader) {
		l.locker = locker
	}
}

// NewBulkLoader creates a loader writing through writer and reading sources
// through opener.
func NewBulkLoader(writer store.BulkWriter, opener SourceOpener, opts ...Option) *BulkLoader {
	l := &BulkLoader{
		writer:    writer,
		opener:    opener,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

type plannedTable struct {
	format format
	path   string
}

func plan(sources common.LoadSources) []plannedTable {
	var out []plannedTable
	if sources.Aliases != "" {
		out = append(out, plannedTable{format: aliasFormat, path: sources.Aliases})
	}
	if sources.Evidence != "" {
		out = append(out, plannedTable{format: evidenceFormat, path: sources.Evidence})
	}
	if sources.Actions != "" {
		out = append(out, plannedTable{format: actionsFormat, path: sources.Actions})
	}
	return out
}

// Load loads every non-empty source of sources, in the order aliases,
// evidence, actions. Each table is recreated right before its rows are
// streamed in and indexed once all batches are committed.
//
// The returned report lists every table that finished loading, also when a
// later table fails.
func (l *BulkLoader) Load(ctx context.Context, sources common.LoadSources) ([]common.TableLoad, error) {
	tables := plan(sources)
	if len(tables) == 0 {
		return nil, ErrNoSources
	}

	var report []common.TableLoad
	run := func(ctx context.Context) error {
		for _, t := range tables {
			res, err := l.loadTable(ctx, t)
			if err != nil {
				return err
			}
			report = append(report, res)
		}
		return nil
	}

	var err error
	if l.locker != nil {
		err = l.locker.WithLease(ctx, LeaseKey, run)
	} else {
		err = run(ctx)
	}
	return report, err
}

func (l *BulkLoader) loadTable(ctx context.Context, t plannedTable) (common.TableLoad, error) {
	start := time.Now()
	table := t.format.table
	res := common.TableLoad{Table: table.Name}

	rc, err := l.opener.Open(ctx, t.path)
	if err != nil {
		return res, &LoadError{File: t.path, Err: err}
	}
	defer rc.Close()

	r, closeFn, err := decompress(t.path, rc)
	if err != nil {
		return res, &LoadError{File: t.path, Err: err}
	}
	defer closeFn()

	logger.Info("[Loader] Recreating table", "table", table.Name, "file", t.path)
	if err := l.writer.RecreateTable(ctx, table); err != nil {
		return res, fmt.Errorf("failed to recreate table %s: %w", table.Name, err)
	}

	reader := newRowReader(t.path, r, t.format)
	for {
		batch, err := reader.Next(l.batchSize)
		if err != nil {
			return res, err
		}
		if len(batch) == 0 {
			break
		}
		if err := l.writer.InsertBatch(ctx, table, batch); err != nil {
			return res, fmt.Errorf("failed to insert batch %d into %s: %w", res.Batches+1, table.Name, err)
		}
		res.Batches++
		res.Rows += int64(len(batch))
		logger.Debug("[Loader] Committed batch", "table", table.Name, "batch", res.Batches, "rows", res.Rows)
	}

	if err := l.writer.CreateIndex(ctx, table); err != nil {
		return res, fmt.Errorf("failed to index table %s: %w", table.Name, err)
	}

	res.DurationMs = time.Since(start).Milliseconds()
	logger.Info("[Loader] Loaded table", "table", table.Name, "rows", res.Rows, "batches", res.Batches, "duration_ms", res.DurationMs)
	return res, nil
}

// decompress wraps r in a gzip reader when path ends in ".gz".
func decompress(path string, r io.Reader) (io.Reader, func() error, error) {
	if !strings.HasSuffix(path, ".gz") {
		return r, func() error { return nil }, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return gz, gz.Close, nil
}
