package dbx

import (
	"context"
	"fmt"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// ClientErrorReporter logs failed queries with their rendered text and returns the error as is.
type ClientErrorReporter struct {
	clientProxy
	logger logx.Logger
}

// NewClientErrorReporter - ClientErrorReporter constructor.
func NewClientErrorReporter(inner Client, logger logx.Logger) *ClientErrorReporter {
	return &ClientErrorReporter{clientProxy: clientProxy{inner: inner}, logger: logx.OrDefault(logger)}
}

func (c *ClientErrorReporter) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	rs, err := c.inner.Query(ctx, sql, args...)
	if err != nil {
		c.logger.LogError(ctx, fmt.Sprintf("Error while executing query \n%s\n%s", QueryToString(sql, args...), err.Error()), err)
		return nil, err
	}

	return rs, nil
}
