package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/pkg/common"
	"github.com/OFFIS-RIT/interactome/pkg/leaselock"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	loaderio "github.com/OFFIS-RIT/interactome/pkg/loader/io"
)

func sqliteConfig(t *testing.T) config.Config {
	return config.Config{
		StoreDriver:      config.DriverSQLite,
		SQLitePath:       filepath.Join(t.TempDir(), "interactome.db"),
		LoadBatchSize:    2,
		PreferredSources: []string{"Ensembl_HGNC"},
		LogFormat:        "text",
	}
}

func TestOpen_SQLiteLoadAndQuery(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	require.NoError(t, Migrate(cfg))

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()

	dir := t.TempDir()
	aliases := "9606.ATMX\tATM\tBLAST_UniProt\n9606.ATM\tATM\tEnsembl_HGNC\n9606.P53\tTP53\tEnsembl_HGNC\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aliases.txt"), []byte(aliases), 0o644))

	l := b.Loader(loaderio.NewFileSourceOpener(dir))
	report, err := l.Load(ctx, common.LoadSources{Aliases: "aliases.txt"})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 2, report[0].Batches)

	ids, err := b.Engine().ResolveForward(ctx, []string{"ATM"})
	require.NoError(t, err)
	assert.Equal(t, "9606.ATM", ids["ATM"])
}

func TestOpen_SQLiteLoadHoldsLease(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, sqliteConfig(t))
	require.NoError(t, err)
	defer b.Close()

	err = b.Locker.WithLease(ctx, loader.LeaseKey, func(ctx context.Context) error {
		_, err := b.Loader(loaderio.NewFileSourceOpener("")).Load(ctx, common.LoadSources{Aliases: "x"})
		return err
	})
	assert.ErrorIs(t, err, leaselock.ErrBusy)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StoreDriver: "mysql"})
	assert.Error(t, err)
}
