package dbx

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// QueryRows runs one query on client. On failure the rendered query is logged at debug level
// and the error is returned unchanged.
func QueryRows(ctx context.Context, client Client, logger logx.Logger, sql string, args ...any) (*ResultSet, error) {
	rs, err := client.Query(ctx, sql, args...)
	if err != nil {
		logx.OrDefault(logger).LogDebug(ctx, "Query failed: "+QueryToString(sql, args...))
		return nil, err
	}

	return rs, nil
}

// TryInsertUnique runs an insert that may collide with a unique constraint
// (SQLSTATE 23505) until it goes through, typically because the statement
// generates a fresh random key on every attempt.
//
// There is no attempt limit: only success, another error or the cancellation
// of ctx end the loop. The first returned row is handed back, nil when the
// statement returns no rows.
//
// Example Usage:
//
//	row, err := dbx.TryInsertUnique(ctx, client,
//	    "INSERT INTO short_links (code, url) VALUES (substr(md5(random()::text), 1, 6), $1) RETURNING code", url)
func TryInsertUnique(ctx context.Context, client Client, sql string, args ...any) (Row, error) {
	var rs *ResultSet
	observer := observerOf(client)

	err := retryUntilCancelled(ctx, func() error {
		var err error
		rs, err = client.Query(ctx, sql, args...)
		return err
	}, func(err error) bool {
		if !errorx.IsUniqueViolation(err) {
			return false
		}

		if ctx.Err() == nil {
			observer.ObserveRetry(ctx, RetryUniqueViolation)
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return rs.First(), nil
}
