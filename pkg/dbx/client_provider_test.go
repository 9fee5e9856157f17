package dbx_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx/logxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAcquirer fails the first n acquisitions with err, then hands out client.
func scriptedAcquirer(n int, err error, client dbx.Client) (dbx.ClientSupplier, *int) {
	var mu sync.Mutex
	attempts := 0

	return func(ctx context.Context) (dbx.Client, error) {
		mu.Lock()
		defer mu.Unlock()

		attempts++
		if attempts <= n {
			return nil, err
		}

		return client, nil
	}, &attempts
}

func TestClientProvider_RetriesTooManyClients(t *testing.T) {
	logger := logxtest.NewRecorder()
	raw := &FakeClient{}
	acquirer, attempts := scriptedAcquirer(3, pgError(errorx.SQLStateTooManyConnections), raw)

	client, err := dbx.NewClientProvider(acquirer, dbx.ClientConfig{Logger: logger}).AcquireClient(context.Background())

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, 4, *attempts)
	assert.Equal(t, []string{
		"Too many clients already, retrying(0) connection to database",
		"Too many clients already, retrying(1) connection to database",
		"Too many clients already, retrying(2) connection to database",
	}, logger.Messages(logxtest.Debug))
}

func TestClientProvider_GivesUpAfterFourAcquisitions(t *testing.T) {
	logger := logxtest.NewRecorder()
	tooMany := pgError(errorx.SQLStateTooManyConnections)
	acquirer, attempts := scriptedAcquirer(100, tooMany, &FakeClient{})

	client, err := dbx.NewClientProvider(acquirer, dbx.ClientConfig{Logger: logger}).AcquireClient(context.Background())

	require.ErrorIs(t, err, tooMany)
	assert.Nil(t, client)
	assert.Equal(t, 4, *attempts)
	assert.True(t, logger.Contains(logxtest.Debug, "Error acquiring database client"))
}

func TestClientProvider_OtherAcquireErrorsAreNotRetried(t *testing.T) {
	refused := errors.New("connection refused")
	acquirer, attempts := scriptedAcquirer(100, refused, &FakeClient{})

	_, err := dbx.NewClientProvider(acquirer, dbx.DefaultClientConfig()).AcquireClient(context.Background())

	require.ErrorIs(t, err, refused)
	assert.Equal(t, 1, *attempts)
}

func TestClientProvider_ChainLogsOnceAroundRetries(t *testing.T) {
	ctx := context.Background()
	logger := logxtest.NewRecorder()
	observer := &countingObserver{}
	deadlock := pgError(errorx.SQLStateDeadlockDetected)
	raw := &FakeClient{queryFunc: failTimes(100, deadlock, nil)}
	acquirer, _ := scriptedAcquirer(0, nil, raw)

	provider := dbx.NewClientProvider(acquirer, dbx.ClientConfig{
		Schema:     "inventory",
		LogQueries: true,
		Logger:     logger,
		Observer:   observer,
	})
	client, err := provider.AcquireClient(ctx)
	require.NoError(t, err)

	_, err = client.Query(ctx, "UPDATE stock SET qty = $1 WHERE sku = $2", 3, "A-1")

	require.ErrorIs(t, err, deadlock)
	assert.Len(t, raw.Queries(), 4)
	assert.Equal(t, []string{"UPDATE stock SET qty = 3 WHERE sku = 'A-1'"}, logger.Messages(logxtest.Debug))
	assert.Equal(t, []string{
		"Deadlock detected",
		"Error while executing query \nUPDATE stock SET qty = 3 WHERE sku = 'A-1'\n" + deadlock.Error(),
	}, logger.Messages(logxtest.Error))
	assert.Len(t, observer.queries, 1)
	assert.Equal(t, []dbx.RetryReason{dbx.RetryDeadlock, dbx.RetryDeadlock, dbx.RetryDeadlock}, observer.retries)

	client.Release()
	assert.Equal(t, 1, raw.Releases())
}

func TestClientProvider_LoggingLayerIsOptional(t *testing.T) {
	ctx := context.Background()
	logger := logxtest.NewRecorder()
	acquirer, _ := scriptedAcquirer(0, nil, &FakeClient{})

	client, err := dbx.NewClientProvider(acquirer, dbx.ClientConfig{Logger: logger}).AcquireClient(ctx)
	require.NoError(t, err)

	_, err = client.Query(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, logger.Entries())
}

func TestClientProvider_DecorateKeepsReleaseOnRawClient(t *testing.T) {
	raw := &FakeClient{}
	acquirer, _ := scriptedAcquirer(0, nil, raw)
	provider := dbx.NewClientProvider(acquirer, dbx.DefaultClientConfig())

	decorated := provider.Decorate(raw)
	assert.IsType(t, &dbx.ClientErrorReporter{}, decorated)

	decorated.Release()
	assert.Equal(t, 1, raw.Releases())
}
