package pgxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
	"github.com/pkg/errors"
)

//###################################
//#     Postgres connection pool    #
//###################################

// PoolConfig - pool sizing and connection hooks. Zero values keep the pgx defaults
// or whatever the connection string sets (pool_max_conns, ...).
type PoolConfig struct {
	MaxConns           int32
	MinConns           int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	PreparedStatements []dbx.PreparedStatement
	Logger             logx.Logger
}

// Pool - pgxpool backed dbx.ConnectionPool.
//
// pgxpool does not report how many callers are blocked in Acquire, so Pool
// counts them itself. Acquire and release listeners fire once per client.
type Pool struct {
	pool      *pgxpool.Pool
	waiting   atomic.Int64
	closed    atomic.Bool
	mu        sync.RWMutex
	onAcquire []func()
	onRelease []func()
	logger    logx.Logger
}

// NewPoolFactory returns a dbx.PoolFactory opening pgx pools configured by poolConf.
func NewPoolFactory(poolConf PoolConfig) dbx.PoolFactory {
	return func(ctx context.Context, connectionString string) (dbx.ConnectionPool, error) {
		return NewPool(ctx, connectionString, poolConf)
	}
}

// NewPool opens a pgx pool. Connections are established lazily, on first Acquire.
func NewPool(ctx context.Context, connectionString string, poolConf PoolConfig) (*Pool, error) {
	pgxPool, err := newConnectionPool(ctx, connectionString, poolConf)
	if err != nil {
		return nil, err
	}

	logger := logx.OrDefault(poolConf.Logger)
	logger.LogInfo(ctx, fmt.Sprintf("Created new Connection Pool: DB=%s, HOST=%s, PORT=%d",
		pgxPool.Config().ConnConfig.Database,
		pgxPool.Config().ConnConfig.Host,
		pgxPool.Config().ConnConfig.Port))

	return &Pool{pool: pgxPool, logger: logger}, nil
}

func newConnectionPool(ctx context.Context, connectionString string, poolConf PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := createConnectionConfiguration(connectionString, poolConf)
	if err != nil {
		return nil, err
	}

	if len(poolConf.PreparedStatements) > 0 {
		poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			return setupPreparedStatements(ctx, conn, poolConf.PreparedStatements...)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errorx.NewDatabaseErrorWrapper(err, "Error creating New Connection Pool")
	}

	return pool, nil
}

func createConnectionConfiguration(connectionString string, poolConf PoolConfig) (*pgxpool.Config, error) {
	if connectionString == "" {
		return nil, errorx.NewDatabaseError("Error creating Connection Pool config: connection string is EMPTY")
	}

	poolConfig, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, errors.Wrap(err, "Error parsing connection string")
	}

	if poolConf.MaxConns > 0 {
		poolConfig.MaxConns = poolConf.MaxConns
	}

	if poolConf.MinConns > 0 {
		poolConfig.MinConns = poolConf.MinConns
	}

	if poolConf.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = poolConf.MaxConnLifetime
	}

	if poolConf.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = poolConf.MaxConnIdleTime
	}

	if poolConf.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = poolConf.HealthCheckPeriod
	}

	return poolConfig, nil
}

func setupPreparedStatements(ctx context.Context, conn *pgx.Conn, preparesStatements ...dbx.PreparedStatement) error {
	for _, stmt := range preparesStatements {
		_, err := conn.Prepare(ctx, stmt.GetName(), stmt.GetQuery())
		if err != nil {
			return errorx.NewDatabaseErrorWrapper(err, "Failed to prepare statement '%s'", stmt.GetName())
		}
	}

	return nil
}

// Acquire takes a connection from the pool. Driver errors are returned unwrapped
// so their SQLSTATE stays visible to the retry logic.
func (p *Pool) Acquire(ctx context.Context) (dbx.Client, error) {
	if p.closed.Load() {
		return nil, errorx.ErrPoolClosed
	}

	p.waiting.Add(1)
	conn, err := p.pool.Acquire(ctx)
	p.waiting.Add(-1)

	if err != nil {
		return nil, err
	}

	p.emit(p.acquireListeners())

	return &pgxClient{conn: conn, pool: p}, nil
}

// End closes the pool. pgxpool.Close blocks until every acquired connection is
// back, so it runs aside and End gives up waiting when ctx is done.
func (p *Pool) End(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.pool.Close()
	}()

	select {
	case <-done:
		p.logger.LogInfo(ctx, "DB Connection Pool Successfully Closed!")
		return nil
	case <-ctx.Done():
		return errorx.NewDatabaseErrorWrapper(ctx.Err(), "Timeout closing connection pool")
	}
}

// IdleCount - idle connections held by the pool.
func (p *Pool) IdleCount() int {
	return int(p.pool.Stat().IdleConns())
}

// WaitingCount - callers blocked in Acquire.
func (p *Pool) WaitingCount() int {
	return int(p.waiting.Load())
}

func (p *Pool) OnAcquire(listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAcquire = append(p.onAcquire, listener)
}

func (p *Pool) OnRelease(listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRelease = append(p.onRelease, listener)
}

// Stat - the underlying pgx statistics.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

func (p *Pool) acquireListeners() []func() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.onAcquire
}

func (p *Pool) releaseListeners() []func() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.onRelease
}

func (p *Pool) emit(listeners []func()) {
	for _, listener := range listeners {
		listener()
	}
}
