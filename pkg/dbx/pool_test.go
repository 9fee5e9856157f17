package dbx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx/logxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoolManager(logger *logxtest.Recorder, pools ...*FakePool) (*dbx.PoolManager, *int) {
	factory, created := poolFactory(pools...)
	pm := dbx.NewPoolManager("postgres://localhost/test", factory, logger).
		WithSchema("inventory").
		WithDrainPolicy(3, time.Millisecond)

	return pm, created
}

func TestPoolManager_CloseWithoutPoolIsNoOp(t *testing.T) {
	pm, created := newTestPoolManager(logxtest.NewRecorder())

	require.NoError(t, pm.CloseDBClientPool(context.Background()))
	require.NoError(t, pm.Close(context.Background()))
	assert.Equal(t, 0, *created)
	assert.False(t, pm.IsOpen())
}

func TestPoolManager_LazyPoolCreation(t *testing.T) {
	ctx := context.Background()
	logger := logxtest.NewRecorder()
	pm, created := newTestPoolManager(logger, &FakePool{})

	assert.False(t, pm.IsOpen())

	require.NoError(t, pm.Connect(ctx))
	require.NoError(t, pm.Connect(ctx))
	_, err := pm.AcquireClient(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, *created)
	assert.True(t, pm.IsOpen())
	assert.Equal(t, []string{"Created new database connection pool for schema inventory"}, logger.Messages(logxtest.Debug))
}

func TestPoolManager_FactoryErrorPropagates(t *testing.T) {
	boom := errors.New("invalid dsn")
	pm := dbx.NewPoolManager("::", func(ctx context.Context, connectionString string) (dbx.ConnectionPool, error) {
		return nil, boom
	}, nil)

	_, err := pm.AcquireClient(context.Background())
	require.ErrorIs(t, err, boom)
	assert.False(t, pm.IsOpen())
}

func TestPoolManager_CountsAcquireAndReleaseEvents(t *testing.T) {
	ctx := context.Background()
	logger := logxtest.NewRecorder()
	pm, _ := newTestPoolManager(logger, &FakePool{})

	c1, err := pm.AcquireClient(ctx)
	require.NoError(t, err)
	c2, err := pm.AcquireClient(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pm.AcquiredCount())

	c1.Release()
	assert.Equal(t, int64(1), pm.AcquiredCount())
	c2.Release()
	assert.Equal(t, int64(0), pm.AcquiredCount())

	// a duplicated release never drives the count negative
	c2.Release()
	assert.Equal(t, int64(0), pm.AcquiredCount())

	assert.Equal(t, []string{
		"Acquired client: 1 (inventory)",
		"Acquired client: 2 (inventory)",
		"Released client: 1 (inventory)",
		"Released client: 0 (inventory)",
	}, logger.Messages(logxtest.Trace))
}

func TestPoolManager_CloseEndsAndResets(t *testing.T) {
	ctx := context.Background()
	first, second := &FakePool{idle: 2}, &FakePool{}
	pm, created := newTestPoolManager(logxtest.NewRecorder(), first, second)

	client, err := pm.AcquireClient(ctx)
	require.NoError(t, err)
	client.Release()

	require.NoError(t, pm.CloseDBClientPool(ctx))
	assert.Equal(t, 1, first.Ended())
	assert.False(t, pm.IsOpen())
	assert.Equal(t, int64(0), pm.AcquiredCount())

	// closing twice does nothing more
	require.NoError(t, pm.CloseDBClientPool(ctx))
	assert.Equal(t, 1, first.Ended())

	// next acquisition opens a fresh pool
	_, err = pm.AcquireClient(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *created)
	assert.Len(t, second.Clients(), 1)
}

func TestPoolManager_CloseProceedsWithClientsStillOut(t *testing.T) {
	ctx := context.Background()
	logger := logxtest.NewRecorder()
	pool := &FakePool{waiting: 1}
	pm, _ := newTestPoolManager(logger, pool)

	leaked, err := pm.AcquireClient(ctx)
	require.NoError(t, err)

	require.NoError(t, pm.CloseDBClientPool(ctx))
	assert.Equal(t, 1, pool.Ended())
	assert.Equal(t, int64(0), pm.AcquiredCount())
	assert.True(t, logger.Contains(logxtest.Debug, "Closing pool with clients still in use: acquired=1 waiting=1"))

	// a late release from the old pool does not touch the reset counter
	leaked.Release()
	assert.Equal(t, int64(0), pm.AcquiredCount())
}

func TestPoolManager_CloseReturnsEndError(t *testing.T) {
	ctx := context.Background()
	endErr := errors.New("end failed")
	pm, _ := newTestPoolManager(logxtest.NewRecorder(), &FakePool{endErr: endErr})

	require.NoError(t, pm.Connect(ctx))
	require.ErrorIs(t, pm.CloseDBClientPool(ctx), endErr)
	assert.False(t, pm.IsOpen())
}

func TestPoolManager_ObserverSeesAcquiredCount(t *testing.T) {
	ctx := context.Background()
	observer := &countingObserver{}
	pm, _ := newTestPoolManager(logxtest.NewRecorder(), &FakePool{})
	pm.WithObserver(observer)

	client, err := pm.AcquireClient(ctx)
	require.NoError(t, err)
	client.Release()
	require.NoError(t, pm.Close(ctx))

	assert.Equal(t, []int64{1, 0, 0}, observer.acquired)
}

func TestPoolManager_AcquireWhileClosingOpensFreshPool(t *testing.T) {
	ctx := context.Background()
	ending, released := make(chan struct{}), make(chan struct{})

	// like pgxpool, End waits for every connection to come back
	first := &FakePool{endFunc: func(ctx context.Context) {
		close(ending)
		<-released
	}}
	second := &FakePool{}
	pm, created := newTestPoolManager(logxtest.NewRecorder(), first, second)

	held, err := pm.AcquireClient(ctx)
	require.NoError(t, err)

	closed := make(chan error, 1)
	go func() { closed <- pm.CloseDBClientPool(context.Background()) }()

	select {
	case <-ending:
	case <-time.After(time.Second):
		t.Fatal("pool End never reached")
	}

	// the holder of a connection of the closing pool can still acquire
	fresh, err := pm.AcquireClient(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, *created)
	assert.Len(t, second.Clients(), 1)
	assert.Equal(t, int64(1), pm.AcquiredCount())

	held.Release()
	close(released)

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("CloseDBClientPool did not return")
	}

	assert.Equal(t, 1, first.Ended())
	assert.True(t, pm.IsOpen())
	assert.Equal(t, int64(1), pm.AcquiredCount())

	fresh.Release()
	assert.Equal(t, int64(0), pm.AcquiredCount())
}
