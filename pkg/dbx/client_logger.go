package dbx

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// ClientLogger logs every query, arguments inlined, at debug level before running it.
type ClientLogger struct {
	clientProxy
	logger logx.Logger
}

// NewClientLogger - ClientLogger constructor.
func NewClientLogger(inner Client, logger logx.Logger) *ClientLogger {
	return &ClientLogger{clientProxy: clientProxy{inner: inner}, logger: logx.OrDefault(logger)}
}

func (c *ClientLogger) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	c.logger.LogDebug(ctx, QueryToString(sql, args...))

	return c.inner.Query(ctx, sql, args...)
}
