// Package leaselock provides an expiring, renewable mutual-exclusion lease
// keyed by name. The Postgres client coordinates separate processes through
// the app_locks table; Local coordinates goroutines of one process.
package leaselock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

// Locker runs fn while holding the lease for key.
type Locker interface {
	WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error
	Held(ctx context.Context, key string) (bool, error)
}

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Client struct {
	db dbConn
}

type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	Wait         bool
	WaitInterval time.Duration
	WaitJitter   time.Duration

	TokenPrefix string
}

func (o Options) normalized() Options {
	if o.TTL < time.Second {
		o.TTL = 5 * time.Minute
	}
	if o.RenewEvery <= 0 || o.RenewEvery >= o.TTL {
		o.RenewEvery = max(o.TTL/2, time.Second)
	}
	if o.WaitInterval <= 0 {
		o.WaitInterval = 250 * time.Millisecond
	}
	if o.WaitJitter < 0 {
		o.WaitJitter = 0
	}
	return o
}

// Lease is a held lock. Its Context is cancelled when the lease is released
// or lost.
type Lease struct {
	Key   string
	Token string

	Context context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a client on a pool or connection whose database carries
// the app_locks table.
func New(db dbConn) *Client {
	return &Client{db: db}
}

func (c *Client) WithLease(ctx context.Context, key string, opts Options, fn func(ctx context.Context) error) error {
	lease, err := c.Acquire(ctx, key, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.Release(context.Background())
	}()
	if err := fn(lease.Context); err != nil {
		return err
	}
	if cause := context.Cause(lease.Context); errors.Is(cause, ErrLost) {
		return ErrLost
	}
	return nil
}

// Held reports whether an unexpired lease exists for key.
func (c *Client) Held(ctx context.Context, key string) (bool, error) {
	var held bool
	if err := c.db.QueryRow(ctx, heldSQL, key).Scan(&held); err != nil {
		return false, err
	}
	return held, nil
}

func (c *Client) Acquire(ctx context.Context, key string, opts Options) (*Lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}
	opts = opts.normalized()
	ttlMs := opts.TTL.Milliseconds()

	tok, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	token := opts.TokenPrefix + tok

	acquireOnce := func(ctx context.Context) (bool, error) {
		var returnedKey string
		err := c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&returnedKey)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, err
		}
		return returnedKey != "", nil
	}

	for {
		ok, err := acquireOnce(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if !opts.Wait {
			return nil, ErrBusy
		}
		if err := sleepWithJitter(ctx, opts.WaitInterval, opts.WaitJitter); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &Lease{
		Key:     key,
		Token:   token,
		Context: leaseCtx,
		client:  c,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}
	logger.Debug("[Lease] Acquired", "key", key, "ttl", opts.TTL)

	go l.renewLoop(opts, ttlMs)

	return l, nil
}

func (l *Lease) Release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})

	_, err := l.client.db.Exec(ctx, releaseSQL, l.Key, l.Token)
	if err == nil {
		logger.Debug("[Lease] Released", "key", l.Key)
	}
	return err
}

func (l *Lease) renewLoop(opts Options, ttlMs int64) {
	t := time.NewTicker(opts.RenewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.Context.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				logger.Warn("[Lease] Renewal failed", "key", l.Key, "err", err)
				l.cancel(err)
				return
			}
		}
	}
}

func (l *Lease) renewOnce(ttlMs int64) error {
	for attempt := range 3 {
		renewCtx, cancel := context.WithTimeout(l.Context, 15*time.Second)
		var returnedKey string
		err := l.client.db.QueryRow(renewCtx, renewSQL, l.Key, l.Token, ttlMs).Scan(&returnedKey)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLost
		}
		if attempt == 2 {
			return err
		}
		if err := sleepWithJitter(l.Context, 200*time.Millisecond, 0); err != nil {
			return err
		}
	}
	return ErrLost
}

func sleepWithJitter(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Guard binds a client to fixed options so it satisfies Locker.
type Guard struct {
	client *Client
	opts   Options
}

var _ Locker = (*Guard)(nil)

func NewGuard(client *Client, opts Options) *Guard {
	return &Guard{client: client, opts: opts}
}

func (g *Guard) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return g.client.WithLease(ctx, key, g.opts, fn)
}

func (g *Guard) Held(ctx context.Context, key string) (bool, error) {
	return g.client.Held(ctx, key)
}

// Local is an in-process Locker. Leases never expire; they end when fn
// returns.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

var _ Locker = (*Local)(nil)

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) WithLease(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return errors.New("lease lock key is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if _, ok := l.held[key]; ok {
		l.mu.Unlock()
		return ErrBusy
	}
	l.held[key] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

func (l *Local) Held(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok, nil
}

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now()
   OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM app_locks
WHERE lock_key = $1 AND locked_by = $2;
`

const heldSQL = `
SELECT EXISTS (
    SELECT 1 FROM app_locks
    WHERE lock_key = $1 AND expires_at > now()
);
`
