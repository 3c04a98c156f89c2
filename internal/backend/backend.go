package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OFFIS-RIT/interactome/internal/config"
	"github.com/OFFIS-RIT/interactome/pkg/leaselock"
	"github.com/OFFIS-RIT/interactome/pkg/loader"
	"github.com/OFFIS-RIT/interactome/pkg/logger"
	"github.com/OFFIS-RIT/interactome/pkg/query"
	"github.com/OFFIS-RIT/interactome/pkg/store"
	pgxstore "github.com/OFFIS-RIT/interactome/pkg/store/pgx"
	"github.com/OFFIS-RIT/interactome/pkg/store/sqlite"
)

// Lease settings for bulk loads. A load renews its lease, so the TTL only
// bounds how long a crashed loader blocks the next one.
const (
	leaseTTL    = 2 * time.Minute
	leasePrefix = "loader-"
)

// Backend bundles the storage and lock of one store driver.
type Backend struct {
	Storage store.Storage
	Locker  leaselock.Locker

	cfg   config.Config
	close func()
}

// Open connects to the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("unable to reach database: %w", err)
		}
		guard := leaselock.NewGuard(leaselock.New(pool), leaselock.Options{
			TTL:         leaseTTL,
			TokenPrefix: leasePrefix,
		})
		logger.Info("[Store] Connected to PostgreSQL")
		return &Backend{
			Storage: pgxstore.NewStorageWithConnection(pool),
			Locker:  guard,
			cfg:     cfg,
			close:   pool.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("[Store] Opened SQLite database", "path", cfg.SQLitePath)
		return &Backend{
			Storage: s,
			Locker:  leaselock.NewLocal(),
			cfg:     cfg,
			close:   func() { _ = s.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// Migrate brings the schema up to date. SQLite needs no migrations.
func Migrate(cfg config.Config) error {
	if cfg.StoreDriver != config.DriverPostgres {
		return nil
	}
	return pgxstore.Migrate(cfg.MigrationsPath, cfg.DatabaseURL)
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Engine returns a query engine over the storage.
func (b *Backend) Engine(opts ...query.Option) *query.Engine {
	opts = append([]query.Option{query.WithPreferredSources(b.cfg.PreferredSources)}, opts...)
	return query.NewEngine(b.Storage, opts...)
}

// Loader returns a bulk loader that writes to the storage under the
// backend's lease.
func (b *Backend) Loader(opener loader.SourceOpener) *loader.BulkLoader {
	return loader.NewBulkLoader(
		b.Storage,
		opener,
		loader.WithBatchSize(b.cfg.LoadBatchSize),
		loader.WithLocker(b.Locker),
	)
}
