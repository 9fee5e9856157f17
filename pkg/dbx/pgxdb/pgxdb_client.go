package pgxdb

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
)

// pgxClient - raw dbx.Client over one pooled connection.
type pgxClient struct {
	conn     *pgxpool.Conn
	pool     *Pool
	released atomic.Bool
}

// Query runs sql and copies every row out of the driver before returning.
func (c *pgxClient) Query(ctx context.Context, sql string, args ...any) (*dbx.ResultSet, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	var resultRows []dbx.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		resultRows = append(resultRows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dbx.NewResultSet(columns, resultRows, rows.CommandTag().RowsAffected()), nil
}

// Release gives the connection back. Only the first call has an effect.
func (c *pgxClient) Release() {
	if !c.released.CompareAndSwap(false, true) {
		return
	}

	c.conn.Release()
	c.pool.emit(c.pool.releaseListeners())
}
