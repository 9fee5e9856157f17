package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqlStateError string

func (e sqlStateError) Error() string    { return "sql error " + string(e) }
func (e sqlStateError) SQLState() string { return string(e) }

func TestObserver_ObserveQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer := NewObserver("test", reg)
	ctx := context.Background()

	observer.ObserveQuery(ctx, dbx.QueryEvent{Schema: "inventory", SQL: "SELECT 1", Duration: 20 * time.Millisecond, Rows: 1})
	observer.ObserveQuery(ctx, dbx.QueryEvent{Schema: "inventory", SQL: "SELECT 1", Err: sqlStateError("40P01")})
	observer.ObserveQuery(ctx, dbx.QueryEvent{Schema: "inventory", SQL: "SELECT 1", Err: errors.New("boom")})

	assert.Equal(t, 2, testutil.CollectAndCount(observer.queryDuration))
	assert.Equal(t, float64(1), testutil.ToFloat64(observer.queryErrors.WithLabelValues("inventory", "40P01")))
	assert.Equal(t, float64(1), testutil.ToFloat64(observer.queryErrors.WithLabelValues("inventory", unknownSQLState)))
}

func TestObserver_ObserveRetryAndAcquired(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer := NewObserver("test", reg)

	observer.ObserveRetry(context.Background(), dbx.RetryDeadlock)
	observer.ObserveRetry(context.Background(), dbx.RetryDeadlock)
	observer.ObserveRetry(context.Background(), dbx.RetryTooManyClients)
	observer.ObserveAcquired("inventory", 3)
	observer.ObserveAcquired("inventory", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(observer.retries.WithLabelValues("deadlock")))
	assert.Equal(t, float64(1), testutil.ToFloat64(observer.retries.WithLabelValues("too_many_clients")))

	expected := `
# HELP test_db_clients_acquired Number of database clients currently out of the pool
# TYPE test_db_clients_acquired gauge
test_db_clients_acquired{schema="inventory"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_db_clients_acquired"))
}

func TestNewObserver_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewObserver("test", reg)

	assert.Panics(t, func() { NewObserver("test", reg) })
}
