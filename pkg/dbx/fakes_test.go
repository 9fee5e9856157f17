//nolint:all
package dbx_test

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
)

func pgError(code string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, Message: "simulated " + code}
}

// FakeClient - scripted dbx.Client recording queries and releases.
type FakeClient struct {
	mu        sync.Mutex
	queries   []string
	args      [][]any
	releases  int
	queryFunc func(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error)
	onRelease func()
}

func (c *FakeClient) Query(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error) {
	c.mu.Lock()
	c.queries = append(c.queries, sql)
	c.args = append(c.args, args)
	fn := c.queryFunc
	c.mu.Unlock()

	if fn == nil {
		return dbx.NewResultSet(nil, nil, 0), nil
	}

	return fn(ctx, sql, args...)
}

func (c *FakeClient) Release() {
	c.mu.Lock()
	c.releases++
	onRelease := c.onRelease
	c.mu.Unlock()

	if onRelease != nil {
		onRelease()
	}
}

func (c *FakeClient) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.queries...)
}

func (c *FakeClient) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.releases
}

// failTimes fails the first n calls with err, then answers with rs.
func failTimes(n int, err error, rs *dbx.ResultSet) func(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error) {
	var mu sync.Mutex
	calls := 0

	return func(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error) {
		mu.Lock()
		defer mu.Unlock()

		calls++
		if calls <= n {
			return nil, err
		}

		return rs, nil
	}
}

// failOn fails only the statement matching sql.
func failOn(sql string, err error) func(ctx context.Context, q string, args ...any) (*dbx.ResultSet, error) {
	return func(ctx context.Context, q string, args ...any) (*dbx.ResultSet, error) {
		if q == sql {
			return nil, err
		}

		return dbx.NewResultSet(nil, nil, 0), nil
	}
}

// FakePool - in memory dbx.ConnectionPool.
type FakePool struct {
	mu          sync.Mutex
	onAcquire   []func()
	onRelease   []func()
	clients     []*FakeClient
	acquireFunc func(ctx context.Context) error
	queryFunc   func(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error)
	idle        int
	waiting     int
	ended       int
	endErr      error
	endFunc     func(ctx context.Context)
}

func (p *FakePool) Acquire(ctx context.Context) (dbx.Client, error) {
	if p.acquireFunc != nil {
		if err := p.acquireFunc(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	client := &FakeClient{queryFunc: p.queryFunc}
	client.onRelease = func() {
		for _, l := range p.releaseListeners() {
			l()
		}
	}
	p.clients = append(p.clients, client)
	listeners := append([]func(){}, p.onAcquire...)
	p.mu.Unlock()

	for _, l := range listeners {
		l()
	}

	return client, nil
}

func (p *FakePool) releaseListeners() []func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]func(){}, p.onRelease...)
}

func (p *FakePool) End(ctx context.Context) error {
	if p.endFunc != nil {
		p.endFunc(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ended++
	p.idle = 0

	return p.endErr
}

func (p *FakePool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.idle
}

func (p *FakePool) WaitingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.waiting
}

func (p *FakePool) OnAcquire(listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAcquire = append(p.onAcquire, listener)
}

func (p *FakePool) OnRelease(listener func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRelease = append(p.onRelease, listener)
}

func (p *FakePool) Clients() []*FakeClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*FakeClient(nil), p.clients...)
}

func (p *FakePool) Ended() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ended
}

// poolFactory returns a PoolFactory handing out the given pools in order and counting calls.
func poolFactory(pools ...*FakePool) (dbx.PoolFactory, *int) {
	created := 0

	return func(ctx context.Context, connectionString string) (dbx.ConnectionPool, error) {
		pool := pools[created]
		created++
		return pool, nil
	}, &created
}
