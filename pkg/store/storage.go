package store

import (
	"context"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

// AliasStorage looks up alias rows by name or by canonical identifier.
// Lookup keys are placed into a transaction-scoped working set that is
// released when the lookup returns, on success and on failure alike.
type AliasStorage interface {
	// LookupAliases returns every alias row whose alias name is one of names.
	LookupAliases(ctx context.Context, names []string) ([]common.Alias, error)
	// LookupProteins returns every alias row whose protein id is one of ids.
	LookupProteins(ctx context.Context, ids []string) ([]common.Alias, error)
}

// InteractionStorage answers the raw interaction lookups used by the query
// engine. First members are restricted to ids; filtering of second members
// is left to the caller.
type InteractionStorage interface {
	AliasStorage

	// QueryActions returns action rows with item_id_a in ids and score > cutoff.
	QueryActions(ctx context.Context, ids []string, cutoff int) ([]common.ActionRecord, error)
	// QueryEvidence returns wide evidence rows with protein1 in ids and
	// combined_score >= cutoff.
	QueryEvidence(ctx context.Context, ids []string, cutoff int) ([]common.EvidenceRow, error)
}

// BulkWriter is the write side used by the bulk loader. Every call runs in
// its own transaction.
type BulkWriter interface {
	// RecreateTable drops t if it exists and creates it empty.
	RecreateTable(ctx context.Context, t Table) error
	// InsertBatch inserts rows into t. Each row holds one value per column of
	// t, in column order. A nil value is stored as NULL.
	InsertBatch(ctx context.Context, t Table, rows [][]any) error
	// CreateIndex builds the lookup index of t.
	CreateIndex(ctx context.Context, t Table) error
}

// LoadRunStorage records bulk load runs for operators.
type LoadRunStorage interface {
	StartLoadRun(ctx context.Context, run common.LoadRun) error
	FinishLoadRun(ctx context.Context, id string, status common.LoadStatus, tables []common.TableLoad, errMsg string) error
	ListLoadRuns(ctx context.Context, limit int) ([]common.LoadRun, error)
	GetLoadRun(ctx context.Context, id string) (*common.LoadRun, error)
	// FailStaleLoadRuns marks every run still in the running state as failed
	// and returns how many were changed.
	FailStaleLoadRuns(ctx context.Context, reason string) (int64, error)
}

// Storage is implemented by every backend.
type Storage interface {
	InteractionStorage
	BulkWriter
	LoadRunStorage
}
