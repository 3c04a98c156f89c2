package pgx

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/store"
)

func newTestStorage(t *testing.T) (*Storage, *pgxpool.Pool) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, Migrate("file://../../../migrations", url))

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewStorageWithConnection(pool), pool
}

func seed(t *testing.T, s *Storage) {
	t.Helper()
	ctx := context.Background()
	tables := map[*store.Table][][]any{
		&store.AliasTable: {
			{"9606.P53", "TP53", "Ensembl_HGNC"},
			{"9606.MDM2", "MDM2", "Ensembl_HGNC"},
		},
		&store.EvidenceTable: {
			{"9606.P53", "9606.MDM2", int64(0), int64(0), int64(0), int64(62), int64(0), int64(0), int64(300), int64(321)},
			{"9606.MDM2", "9606.P53", int64(0), int64(0), int64(0), int64(0), int64(0), int64(0), int64(150), int64(150)},
		},
		&store.ActionsTable: {
			{"9606.MDM2", "9606.P53", "inhibition", "inhibition", int64(1), int64(1), int64(900)},
			{"9606.P53", "9606.MDM2", "binding", nil, int64(0), int64(0), int64(200)},
		},
	}
	for table, rows := range tables {
		require.NoError(t, s.RecreateTable(ctx, *table))
		require.NoError(t, s.InsertBatch(ctx, *table, rows))
		require.NoError(t, s.CreateIndex(ctx, *table))
	}
}

func TestStorage_LookupAndQuery(t *testing.T) {
	s, _ := newTestStorage(t)
	seed(t, s)
	ctx := context.Background()

	aliases, err := s.LookupAliases(ctx, []string{"TP53", "UNKNOWN", "TP53"})
	require.NoError(t, err)
	assert.Equal(t, []common.Alias{{ProteinID: "9606.P53", Alias: "TP53", Source: "Ensembl_HGNC"}}, aliases)

	actions, err := s.QueryActions(ctx, []string{"9606.P53", "9606.MDM2"}, 200)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "inhibition", actions[0].Mode)
	assert.True(t, actions[0].IsDirectional)
	require.NotNil(t, actions[0].Action)

	evidence, err := s.QueryEvidence(ctx, []string{"9606.P53", "9606.MDM2"}, 200)
	require.NoError(t, err)
	require.Len(t, evidence, 1)
	assert.Equal(t, 321, evidence[0].CombinedScore)
	assert.Equal(t, 62, evidence[0].Channels[3])
}

func TestStorage_WorkingSetIsReleased(t *testing.T) {
	s, pool := newTestStorage(t)
	seed(t, s)
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	one := NewStorageWithConnection(conn.Conn())
	_, err = one.LookupAliases(ctx, []string{"TP53"})
	require.NoError(t, err)
	_, err = one.LookupAliases(ctx, []string{"MDM2"})
	require.NoError(t, err)

	var exists bool
	require.NoError(t, conn.QueryRow(ctx, `SELECT to_regclass('pg_temp.lookup_keys') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists)
}

func TestStorage_LoadRuns(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := s.FailStaleLoadRuns(ctx, "test cleanup")
	require.NoError(t, err)

	run := common.LoadRun{ID: fmt.Sprintf("run-pgx-%d", time.Now().UnixNano()), Sources: common.LoadSources{Aliases: "a.txt"}}
	require.NoError(t, s.StartLoadRun(ctx, run))
	require.NoError(t, s.FinishLoadRun(ctx, run.ID, common.LoadStatusCompleted, []common.TableLoad{{Table: "alias", Rows: 2, Batches: 1}}, ""))

	got, err := s.GetLoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, common.LoadStatusCompleted, got.Status)
	assert.Equal(t, "a.txt", got.Sources.Aliases)
	require.Len(t, got.Tables, 1)
	assert.NotNil(t, got.FinishedAt)

	missing, err := s.GetLoadRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
