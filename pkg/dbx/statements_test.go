package dbx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoStatement(ctx context.Context, client dbx.Client, args ...any) (any, error) {
	rs, err := client.Query(ctx, "SELECT $1", args...)
	if err != nil {
		return nil, err
	}

	return rs.Len(), nil
}

func failingStatement(ctx context.Context, client dbx.Client, args ...any) (any, error) {
	return nil, errors.New("statement failed")
}

func testGroups() dbx.StatementGroups {
	return dbx.StatementGroups{
		"users": {
			"echo": echoStatement,
			"fail": failingStatement,
		},
		"orders": {
			"echo": echoStatement,
		},
	}
}

func TestBindStatements_PinnedClient(t *testing.T) {
	ctx := context.Background()
	client := &FakeClient{}

	bound := dbx.BindStatements(testGroups(), client)

	require.Len(t, bound, 2)
	assert.Len(t, bound.Group("users"), 2)
	assert.Len(t, bound.Group("orders"), 1)

	_, err := bound.Call(ctx, "users", "echo", 1)
	require.NoError(t, err)
	_, err = bound["orders"]["echo"](ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"SELECT $1", "SELECT $1"}, client.Queries())
	assert.Equal(t, 0, client.Releases())
}

func TestBindStatementsAutoRelease_ReleasesPerCall(t *testing.T) {
	ctx := context.Background()
	var clients []*FakeClient
	supplier := dbx.ClientSupplier(func(ctx context.Context) (dbx.Client, error) {
		c := &FakeClient{}
		clients = append(clients, c)
		return c, nil
	})

	bound := dbx.BindStatementsAutoRelease(testGroups(), supplier)

	_, err := bound.Call(ctx, "users", "echo", "a")
	require.NoError(t, err)
	_, err = bound.Call(ctx, "users", "fail")
	require.EqualError(t, err, "statement failed")

	require.Len(t, clients, 2)
	assert.Equal(t, 1, clients[0].Releases())
	assert.Equal(t, 1, clients[1].Releases())
}

func TestBindStatementAutoRelease_ReleasesOnPanic(t *testing.T) {
	client := &FakeClient{}
	supplier := dbx.ClientSupplier(func(ctx context.Context) (dbx.Client, error) { return client, nil })

	bound := dbx.BindStatementAutoRelease(func(ctx context.Context, c dbx.Client, args ...any) (any, error) {
		panic("statement bug")
	}, supplier)

	assert.Panics(t, func() { _, _ = bound(context.Background()) })
	assert.Equal(t, 1, client.Releases())
}

func TestBindStatementAutoRelease_AcquireError(t *testing.T) {
	acquireErr := errors.New("pool exhausted")
	supplier := dbx.ClientSupplier(func(ctx context.Context) (dbx.Client, error) { return nil, acquireErr })

	_, err := dbx.BindStatementAutoRelease(echoStatement, supplier)(context.Background())
	require.ErrorIs(t, err, acquireErr)
}

func TestBoundStatements_UnknownStatement(t *testing.T) {
	bound := dbx.BindStatements(testGroups(), &FakeClient{})

	_, err := bound.Call(context.Background(), "users", "missing")
	require.ErrorIs(t, err, errorx.ErrStatementNotFound)

	_, err = bound.Call(context.Background(), "missing", "echo")
	require.ErrorIs(t, err, errorx.ErrStatementNotFound)
}
