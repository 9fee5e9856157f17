package dbx

import "context"

// Client - a single database connection, or a decorator wrapping one.
//
// Query runs sql with positional $n arguments and returns the materialized rows.
// Release gives the connection back to its pool; callers must not use the Client afterwards.
type Client interface {
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)
	Release()
}

// ClientAcquirer hands out clients ready to use.
type ClientAcquirer interface {
	AcquireClient(ctx context.Context) (Client, error)
}

// ClientSupplier - function form of ClientAcquirer.
type ClientSupplier func(ctx context.Context) (Client, error)

// AcquireClient - call the supplier.
func (s ClientSupplier) AcquireClient(ctx context.Context) (Client, error) {
	return s(ctx)
}

// clientProxy forwards every call to the wrapped client. Decorators embed it
// and override only the calls they care about.
type clientProxy struct {
	inner Client
}

func (p clientProxy) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	return p.inner.Query(ctx, sql, args...)
}

func (p clientProxy) Release() {
	p.inner.Release()
}

func (p clientProxy) retryObserver() Observer {
	return observerOf(p.inner)
}

// observerOf finds the Observer retries on c are reported to, walking down
// the decorator chain. NoOpObserver when none is attached.
func observerOf(c Client) Observer {
	if o, ok := c.(interface{ retryObserver() Observer }); ok {
		return o.retryObserver()
	}

	return NoOpObserver{}
}
