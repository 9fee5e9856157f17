package dbx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// ConnectionPool - the driver pool a PoolManager orchestrates.
//
// OnAcquire and OnRelease listeners fire once per client handed out and once per
// client given back. End stops the pool and waits for it, bounded by ctx.
type ConnectionPool interface {
	Acquire(ctx context.Context) (Client, error)
	End(ctx context.Context) error
	IdleCount() int
	WaitingCount() int
	OnAcquire(listener func())
	OnRelease(listener func())
}

// PoolFactory opens a ConnectionPool for a connection string.
type PoolFactory func(ctx context.Context, connectionString string) (ConnectionPool, error)

// Drain defaults used by CloseDBClientPool.
const (
	DefaultDrainRetries  = 3
	DefaultDrainInterval = 100 * time.Millisecond
)

// PoolManager owns the lifecycle of one lazily created connection pool.
//
// The pool is opened by the first Connect or AcquireClient and torn down by
// CloseDBClientPool, after which the next acquisition opens a fresh one.
// Each pool keeps its own count of clients out; the count only moves on pool events.
type PoolManager struct {
	mu               sync.Mutex
	current          *managedPool
	connectionString string
	schema           string
	factory          PoolFactory
	logger           logx.Logger
	observer         Observer
	drainRetries     int
	drainInterval    time.Duration
}

// managedPool - a pool and the clients acquired from it.
type managedPool struct {
	pool     ConnectionPool
	acquired atomic.Int64
}

// NewPoolManager - PoolManager constructor. Nothing is opened until first use.
func NewPoolManager(connectionString string, factory PoolFactory, logger logx.Logger) *PoolManager {
	return &PoolManager{
		connectionString: connectionString,
		factory:          factory,
		logger:           logx.OrDefault(logger),
		observer:         NoOpObserver{},
		drainRetries:     DefaultDrainRetries,
		drainInterval:    DefaultDrainInterval,
	}
}

// WithSchema - schema name reported in pool logs.
func (pm *PoolManager) WithSchema(schema string) *PoolManager {
	pm.schema = schema
	return pm
}

// WithDrainPolicy - how many times, and how far apart, CloseDBClientPool polls for a drained pool.
func (pm *PoolManager) WithDrainPolicy(retries int, interval time.Duration) *PoolManager {
	pm.drainRetries = retries
	pm.drainInterval = interval
	return pm
}

// WithObserver - receiver of acquired count changes.
func (pm *PoolManager) WithObserver(observer Observer) *PoolManager {
	pm.observer = observerOrNoOp(observer)
	return pm
}

// Connect makes sure the pool exists, without acquiring anything.
func (pm *PoolManager) Connect(ctx context.Context) error {
	_, err := pm.getPool(ctx)
	return err
}

// AcquireClient takes a raw client from the pool, opening the pool if needed.
func (pm *PoolManager) AcquireClient(ctx context.Context) (Client, error) {
	mp, err := pm.getPool(ctx)
	if err != nil {
		return nil, err
	}

	return mp.pool.Acquire(ctx)
}

// AcquiredCount - clients currently out of the open pool.
func (pm *PoolManager) AcquiredCount() int64 {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.current == nil {
		return 0
	}

	return pm.current.acquired.Load()
}

// IsOpen - true while a pool exists.
func (pm *PoolManager) IsOpen() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return pm.current != nil
}

func (pm *PoolManager) isCurrent(mp *managedPool) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return pm.current == mp
}

func (pm *PoolManager) getPool(ctx context.Context) (*managedPool, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.current != nil {
		return pm.current, nil
	}

	pool, err := pm.factory(ctx, pm.connectionString)
	if err != nil {
		return nil, err
	}

	mp := &managedPool{pool: pool}
	pool.OnAcquire(func() { pm.onAcquire(mp) })
	pool.OnRelease(func() { pm.onRelease(mp) })

	pm.current = mp
	pm.logger.LogDebug(ctx, fmt.Sprintf("Created new database connection pool for schema %s", pm.schema))

	return mp, nil
}

func (pm *PoolManager) onAcquire(mp *managedPool) {
	count := mp.acquired.Add(1)
	pm.logger.LogTrace(context.Background(), fmt.Sprintf("Acquired client: %d (%s)", count, pm.schema))

	if pm.isCurrent(mp) {
		pm.observer.ObserveAcquired(pm.schema, count)
	}
}

func (pm *PoolManager) onRelease(mp *managedPool) {
	var count int64
	for {
		current := mp.acquired.Load()
		if current <= 0 {
			return
		}
		if mp.acquired.CompareAndSwap(current, current-1) {
			count = current - 1
			break
		}
	}

	pm.logger.LogTrace(context.Background(), fmt.Sprintf("Released client: %d (%s)", count, pm.schema))

	if pm.isCurrent(mp) {
		pm.observer.ObserveAcquired(pm.schema, count)
	}
}

// CloseDBClientPool drains and closes the pool.
//
// Without an open pool this is a no-op. Otherwise the pool is detached from the
// manager first, so acquisitions arriving meanwhile open a fresh pool instead of
// waiting on this one. Then it polls until no client of the old pool is acquired
// or waiting, ends it, and polls until no idle connection is left. Both polls are
// best effort: when they run out of retries shutdown goes on anyway.
//
// Returns:
//   - error: the error of ending the pool, if any.
func (pm *PoolManager) CloseDBClientPool(ctx context.Context) error {
	pm.mu.Lock()
	mp := pm.current
	pm.current = nil
	pm.mu.Unlock()

	if mp == nil {
		return nil
	}

	if !pm.IsOpen() {
		pm.observer.ObserveAcquired(pm.schema, 0)
	}

	pool := mp.pool

	drained := pollUntil(ctx, pm.drainRetries, pm.drainInterval, func() bool {
		return mp.acquired.Load() == 0 && pool.WaitingCount() == 0
	})
	if !drained {
		pm.logger.LogDebug(ctx, fmt.Sprintf("Closing pool with clients still in use: acquired=%d waiting=%d (%s)",
			mp.acquired.Load(), pool.WaitingCount(), pm.schema))
	}

	endErr := pool.End(ctx)

	if !pollUntil(ctx, pm.drainRetries, pm.drainInterval, func() bool { return pool.IdleCount() == 0 }) {
		pm.logger.LogDebug(ctx, fmt.Sprintf("Pool closed with idle connections left: %d (%s)", pool.IdleCount(), pm.schema))
	}

	if endErr != nil {
		pm.logger.LogError(ctx, "Error closing database connection pool", endErr)
		return endErr
	}

	pm.logger.LogDebug(ctx, fmt.Sprintf("Database connection pool closed (%s)", pm.schema))

	return nil
}

// Close - alias of CloseDBClientPool.
func (pm *PoolManager) Close(ctx context.Context) error {
	return pm.CloseDBClientPool(ctx)
}
