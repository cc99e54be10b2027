// Package pool owns the bounded set of backing-store connections shared by
// every request handler. It is created once at process start, probed for
// liveness, and torn down at shutdown; callers acquire a connection per
// logical operation and must release it on every exit path.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/schema"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// Config bounds the pool. The backing store enforces its own connection
// ceiling, so the defaults stay deliberately small.
type Config struct {
	DSN            string
	MinConns       int           // idle connections kept warm, at least 1
	MaxConns       int           // concurrent connection ceiling
	AcquireTimeout time.Duration // how long Acquire blocks before giving up
	MaxIdleTime    time.Duration // idle connections older than this are discarded
	CommandTimeout time.Duration // deadline for one scoped operation via With
}

func (c Config) withDefaults() Config {
	if c.MinConns < 1 {
		c.MinConns = 1
	}
	if c.MaxConns < c.MinConns {
		c.MaxConns = 2
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 10 * time.Second
	}
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = 10 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 20 * time.Second
	}
	return c
}

// Pool is a process-scoped connection pool over the backing store.
type Pool struct {
	db             *bun.DB
	log            *log.Logger
	acquireTimeout time.Duration
	commandTimeout time.Duration
}

// New opens a Postgres-backed pool and probes it with a trivial liveness
// query. A failed probe fails pool creation with ErrConnectionFailed rather
// than handing back a silently empty pool.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database URL not configured", apperr.ErrConnectionFailed)
	}
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConnectionFailed, err)
	}
	return bootstrap(ctx, sqldb, pgdialect.New(), cfg, logger)
}

// NewWithDB wires a pool over an already-open database handle. Tests use this
// to run the full acquire/release discipline against sqlite.
func NewWithDB(ctx context.Context, sqldb *sql.DB, dialect schema.Dialect, cfg Config, logger *log.Logger) (*Pool, error) {
	return bootstrap(ctx, sqldb, dialect, cfg, logger)
}

func bootstrap(ctx context.Context, sqldb *sql.DB, dialect schema.Dialect, cfg Config, logger *log.Logger) (*Pool, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Default()
	}

	sqldb.SetMaxOpenConns(cfg.MaxConns)
	sqldb.SetMaxIdleConns(cfg.MinConns)
	sqldb.SetConnMaxIdleTime(cfg.MaxIdleTime)

	db := bun.NewDB(sqldb, dialect)

	probeCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()

	var one int
	if err := db.QueryRowContext(probeCtx, "SELECT 1").Scan(&one); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: liveness probe: %v", apperr.ErrConnectionFailed, err)
	}

	logger.Info("database pool ready",
		"min_conns", cfg.MinConns,
		"max_conns", cfg.MaxConns,
		"max_idle_time", cfg.MaxIdleTime)

	return &Pool{
		db:             db,
		log:            logger,
		acquireTimeout: cfg.AcquireTimeout,
		commandTimeout: cfg.CommandTimeout,
	}, nil
}

// Acquire blocks until a connection is available or the acquire timeout
// elapses, in which case it fails with ErrResourceExhausted. A caller whose
// own context expires or is canceled first gets that context error back, not
// an exhaustion report.
func (p *Pool) Acquire(ctx context.Context) (bun.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return bun.Conn{}, fmt.Errorf("acquire connection: %w", ctxErr)
			}
			return bun.Conn{}, fmt.Errorf("%w: no connection within %s", apperr.ErrResourceExhausted, p.acquireTimeout)
		}
		return bun.Conn{}, fmt.Errorf("%w: %v", apperr.ErrConnectionFailed, err)
	}
	return conn, nil
}

// Release returns a connection to the pool unconditionally. It is safe to
// call on error paths; a connection that failed mid-operation is discarded by
// the pool rather than reused.
func (p *Pool) Release(conn bun.Conn) {
	if err := conn.Close(); err != nil {
		p.log.Warn("failed to release connection", "error", err)
	}
}

// With runs fn with an acquired connection and guarantees release on every
// exit path, including panics and fn errors. The operation runs under the
// pool's command timeout; cancellation of the caller's context abandons the
// in-flight query, and the connection is still released.
func (p *Pool) With(ctx context.Context, fn func(ctx context.Context, idb bun.IDB) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	opCtx, cancel := context.WithTimeout(ctx, p.commandTimeout)
	defer cancel()
	return fn(opCtx, conn)
}

// Close tears the pool down. Called once at process shutdown.
func (p *Pool) Close() error {
	p.log.Info("closing database pool")
	return p.db.Close()
}
