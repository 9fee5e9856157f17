package dbx

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// ClientRetry re-runs a query that lost a deadlock (SQLSTATE 40P01), up to
// MaxQueryRetries extra times. Every other failure is returned at once.
type ClientRetry struct {
	clientProxy
	logger   logx.Logger
	observer Observer
}

// NewClientRetry - ClientRetry constructor. A nil logger falls back to logx.GetLogger().
func NewClientRetry(inner Client, logger logx.Logger, observer Observer) *ClientRetry {
	return &ClientRetry{
		clientProxy: clientProxy{inner: inner},
		logger:      logx.OrDefault(logger),
		observer:    observerOrNoOp(observer),
	}
}

func (c *ClientRetry) retryObserver() Observer {
	return c.observer
}

// Query runs sql, retrying deadlock victims.
func (c *ClientRetry) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	var rs *ResultSet

	err := retryImmediately(MaxQueryRetries, func() error {
		var err error
		rs, err = c.inner.Query(ctx, sql, args...)
		return err
	}, func(err error, attempt int) bool {
		if !errorx.IsDeadlock(err) {
			return false
		}

		if attempt < MaxQueryRetries {
			c.logger.LogWarning(ctx, "Deadlock detected, retrying request", err)
			c.observer.ObserveRetry(ctx, RetryDeadlock)
			return true
		}

		c.logger.LogError(ctx, "Deadlock detected", err)
		return false
	})
	if err != nil {
		return nil, err
	}

	return rs, nil
}
