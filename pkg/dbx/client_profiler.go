package dbx

import (
	"context"
	"fmt"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// DefaultSlowQueryThreshold - queries running at least this long are reported.
const DefaultSlowQueryThreshold = 4000 * time.Millisecond

// ClientProfiler warns about queries whose wall time reaches the threshold.
type ClientProfiler struct {
	clientProxy
	logger    logx.Logger
	threshold time.Duration
	now       func() time.Time
}

// NewClientProfiler - ClientProfiler constructor. A non positive threshold means DefaultSlowQueryThreshold.
func NewClientProfiler(inner Client, logger logx.Logger, threshold time.Duration) *ClientProfiler {
	if threshold <= 0 {
		threshold = DefaultSlowQueryThreshold
	}

	return &ClientProfiler{
		clientProxy: clientProxy{inner: inner},
		logger:      logx.OrDefault(logger),
		threshold:   threshold,
		now:         time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (c *ClientProfiler) WithClock(now func() time.Time) *ClientProfiler {
	c.now = now
	return c
}

func (c *ClientProfiler) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	start := c.now()
	rs, err := c.inner.Query(ctx, sql, args...)

	if elapsed := c.now().Sub(start); elapsed >= c.threshold {
		c.logger.LogWarning(ctx, fmt.Sprintf("Database query took %d ms", elapsed.Milliseconds()))
	}

	return rs, err
}
