package dbx

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
)

// Statement - application query function, it receives the client to run on as first argument.
type Statement func(ctx context.Context, client Client, args ...any) (any, error)

// StatementGroups - statements by group name, then by statement name.
type StatementGroups map[string]map[string]Statement

// BoundStatement - a Statement with its client already supplied.
type BoundStatement func(ctx context.Context, args ...any) (any, error)

// BoundStatements - same shape as the StatementGroups it was bound from.
type BoundStatements map[string]map[string]BoundStatement

// BindStatement pins stmt to client. The bound statement never releases the client.
func BindStatement(stmt Statement, client Client) BoundStatement {
	return func(ctx context.Context, args ...any) (any, error) {
		return stmt(ctx, client, args...)
	}
}

// BindStatementAutoRelease binds stmt to a fresh client per call.
// The client is released when the call returns, failed or not.
func BindStatementAutoRelease(stmt Statement, clients ClientAcquirer) BoundStatement {
	return func(ctx context.Context, args ...any) (any, error) {
		client, err := clients.AcquireClient(ctx)
		if err != nil {
			return nil, err
		}
		defer client.Release()

		return stmt(ctx, client, args...)
	}
}

// BindStatements pins every statement of groups to client.
func BindStatements(groups StatementGroups, client Client) BoundStatements {
	return bindGroups(groups, func(stmt Statement) BoundStatement {
		return BindStatement(stmt, client)
	})
}

// BindStatementsAutoRelease binds every statement of groups in auto-release mode.
func BindStatementsAutoRelease(groups StatementGroups, clients ClientAcquirer) BoundStatements {
	return bindGroups(groups, func(stmt Statement) BoundStatement {
		return BindStatementAutoRelease(stmt, clients)
	})
}

func bindGroups(groups StatementGroups, bind func(Statement) BoundStatement) BoundStatements {
	bound := make(BoundStatements, len(groups))
	for groupName, group := range groups {
		boundGroup := make(map[string]BoundStatement, len(group))
		for name, stmt := range group {
			boundGroup[name] = bind(stmt)
		}
		bound[groupName] = boundGroup
	}

	return bound
}

// Group returns the statements of one group, nil when unknown.
func (b BoundStatements) Group(name string) map[string]BoundStatement {
	return b[name]
}

// Get looks up a single statement.
func (b BoundStatements) Get(group, name string) (BoundStatement, error) {
	stmt, ok := b[group][name]
	if !ok {
		return nil, errorx.NewDatabaseErrorWrapper(errorx.ErrStatementNotFound, "%s.%s", group, name)
	}

	return stmt, nil
}

// Call runs group.name with args.
func (b BoundStatements) Call(ctx context.Context, group, name string, args ...any) (any, error) {
	stmt, err := b.Get(group, name)
	if err != nil {
		return nil, err
	}

	return stmt(ctx, args...)
}
