package pgx

import (
	"context"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

const workingSetTable = "lookup_keys"

// The working set lives only as long as the enclosing transaction.
const createWorkingSetSQL = `CREATE TEMP TABLE lookup_keys (key TEXT PRIMARY KEY) ON COMMIT DROP`

// withWorkingSet opens a transaction, fills a temporary table with the
// deduplicated keys and runs fn against it. The table is dropped when the
// transaction commits or rolls back.
func (s *Storage) withWorkingSet(ctx context.Context, keys []string, fn func(tx pgxv5.Tx) error) error {
	keys = store.SortedKeys(keys)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createWorkingSetSQL); err != nil {
		return fmt.Errorf("failed to create working set: %w", err)
	}
	rows := make([][]any, len(keys))
	for i, k := range keys {
		rows[i] = []any{k}
	}
	if _, err := tx.CopyFrom(ctx, pgxv5.Identifier{workingSetTable}, []string{"key"}, pgxv5.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to fill working set: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const lookupAliasesSQL = `
SELECT a.protein_id, a.alias, a.source
FROM alias a
JOIN lookup_keys k ON a.alias = k.key
`

const lookupProteinsSQL = `
SELECT a.protein_id, a.alias, a.source
FROM alias a
JOIN lookup_keys k ON a.protein_id = k.key
`

const queryActionsSQL = `
SELECT a.item_id_a, a.item_id_b, a.mode, a.action,
       a.is_directional <> 0, a.a_is_acting <> 0, a.score
FROM actions a
JOIN lookup_keys k ON a.item_id_a = k.key
WHERE a.score > $1
`

const queryEvidenceSQL = `
SELECT e.protein1, e.protein2,
       e.neighborhood, e.fusion, e.cooccurence, e.coexpression,
       e.experimental, e."database", e.textmining, e.combined_score
FROM evidence e
JOIN lookup_keys k ON e.protein1 = k.key
WHERE e.combined_score >= $1
`

func (s *Storage) lookup(ctx context.Context, keys []string, sql string) ([]common.Alias, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var out []common.Alias
	err := s.withWorkingSet(ctx, keys, func(tx pgxv5.Tx) error {
		rows, err := tx.Query(ctx, sql)
		if err != nil {
			return err
		}
		out, err = pgxv5.CollectRows(rows, pgxv5.RowToStructByPos[common.Alias])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LookupAliases returns alias rows whose alias name is one of names.
func (s *Storage) LookupAliases(ctx context.Context, names []string) ([]common.Alias, error) {
	return s.lookup(ctx, names, lookupAliasesSQL)
}

// LookupProteins returns alias rows whose protein id is one of ids.
func (s *Storage) LookupProteins(ctx context.Context, ids []string) ([]common.Alias, error) {
	return s.lookup(ctx, ids, lookupProteinsSQL)
}

// QueryActions returns action rows with item_id_a in ids and score > cutoff.
func (s *Storage) QueryActions(ctx context.Context, ids []string, cutoff int) ([]common.ActionRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []common.ActionRecord
	err := s.withWorkingSet(ctx, ids, func(tx pgxv5.Tx) error {
		rows, err := tx.Query(ctx, queryActionsSQL, cutoff)
		if err != nil {
			return err
		}
		out, err = pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.ActionRecord, error) {
			var r common.ActionRecord
			err := row.Scan(&r.ItemA, &r.ItemB, &r.Mode, &r.Action, &r.IsDirectional, &r.AIsActing, &r.Score)
			return r, err
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryEvidence returns evidence rows with protein1 in ids and
// combined_score >= cutoff.
func (s *Storage) QueryEvidence(ctx context.Context, ids []string, cutoff int) ([]common.EvidenceRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []common.EvidenceRow
	err := s.withWorkingSet(ctx, ids, func(tx pgxv5.Tx) error {
		rows, err := tx.Query(ctx, queryEvidenceSQL, cutoff)
		if err != nil {
			return err
		}
		out, err = pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.EvidenceRow, error) {
			var r common.EvidenceRow
			err := row.Scan(
				&r.Protein1, &r.Protein2,
				&r.Channels[0], &r.Channels[1], &r.Channels[2], &r.Channels[3],
				&r.Channels[4], &r.Channels[5], &r.Channels[6],
				&r.CombinedScore,
			)
			return r, err
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
