package dbx

import (
	"context"
	"time"
)

// ClientObserver reports each query to an Observer.
type ClientObserver struct {
	clientProxy
	observer Observer
	schema   string
}

// NewClientObserver - ClientObserver constructor.
func NewClientObserver(inner Client, observer Observer, schema string) *ClientObserver {
	return &ClientObserver{clientProxy: clientProxy{inner: inner}, observer: observerOrNoOp(observer), schema: schema}
}

func (c *ClientObserver) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	start := time.Now()
	rs, err := c.inner.Query(ctx, sql, args...)

	c.observer.ObserveQuery(ctx, QueryEvent{
		Schema:   c.schema,
		SQL:      sql,
		Duration: time.Since(start),
		Rows:     rs.Len(),
		Err:      err,
	})

	return rs, err
}
