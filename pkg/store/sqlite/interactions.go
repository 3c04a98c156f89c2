package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

const (
	createWorkingSetSQL = `CREATE TEMP TABLE lookup_keys (key TEXT PRIMARY KEY)`
	fillWorkingSetSQL   = `INSERT INTO temp.lookup_keys (key) VALUES (?)`
	dropWorkingSetSQL   = `DROP TABLE temp.lookup_keys`
)

// withWorkingSet fills a temporary table with the deduplicated keys and runs
// fn against it inside one transaction. The table is dropped before commit;
// on failure the rollback discards it together with everything else.
func (s *Storage) withWorkingSet(ctx context.Context, keys []string, fn func(tx *sql.Tx) error) error {
	keys = store.SortedKeys(keys)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createWorkingSetSQL); err != nil {
			return fmt.Errorf("failed to create working set: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, fillWorkingSetSQL)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, k); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to fill working set: %w", err)
			}
		}
		stmt.Close()

		if err := fn(tx); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, dropWorkingSetSQL)
		return err
	})
}

const lookupAliasesSQL = `
SELECT a.protein_id, a.alias, a.source
FROM alias a
JOIN temp.lookup_keys k ON a.alias = k.key
`

const lookupProteinsSQL = `
SELECT a.protein_id, a.alias, a.source
FROM alias a
JOIN temp.lookup_keys k ON a.protein_id = k.key
`

const queryActionsSQL = `
SELECT a.item_id_a, a.item_id_b, a.mode, a."action",
       a.is_directional <> 0, a.a_is_acting <> 0, a.score
FROM actions a
JOIN temp.lookup_keys k ON a.item_id_a = k.key
WHERE a.score > ?
`

const queryEvidenceSQL = `
SELECT e.protein1, e.protein2,
       e.neighborhood, e.fusion, e.cooccurence, e.coexpression,
       e.experimental, e."database", e.textmining, e.combined_score
FROM evidence e
JOIN temp.lookup_keys k ON e.protein1 = k.key
WHERE e.combined_score >= ?
`

func (s *Storage) lookup(ctx context.Context, keys []string, query string) ([]common.Alias, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var out []common.Alias
	err := s.withWorkingSet(ctx, keys, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var a common.Alias
			if err := rows.Scan(&a.ProteinID, &a.Alias, &a.Source); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
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
	err := s.withWorkingSet(ctx, ids, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, queryActionsSQL, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				r      common.ActionRecord
				action sql.NullString
			)
			if err := rows.Scan(&r.ItemA, &r.ItemB, &r.Mode, &action, &r.IsDirectional, &r.AIsActing, &r.Score); err != nil {
				return err
			}
			if action.Valid {
				v := action.String
				r.Action = &v
			}
			out = append(out, r)
		}
		return rows.Err()
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
	err := s.withWorkingSet(ctx, ids, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, queryEvidenceSQL, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r common.EvidenceRow
			if err := rows.Scan(
				&r.Protein1, &r.Protein2,
				&r.Channels[0], &r.Channels[1], &r.Channels[2], &r.Channels[3],
				&r.Channels[4], &r.Channels[5], &r.Channels[6],
				&r.CombinedScore,
			); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
