package dbx

import (
	"context"
	"fmt"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// Handle - what statement code needs, satisfied by both *Database and *Transaction.
type Handle interface {
	Schema() string
	IsTransact() bool
	QueryRaw(ctx context.Context, sql string, args ...any) (*ResultSet, error)
	Statements() BoundStatements
	Call(ctx context.Context, group, name string, args ...any) (any, error)
}

var (
	_ Handle = (*Database)(nil)
	_ Handle = (*Transaction)(nil)
)

//###################################
//#         Database handle         #
//###################################

// Database - the non transactional handle. Every call acquires its own client.
type Database struct {
	schema     string
	pool       *PoolManager
	clients    ClientAcquirer
	raw        StatementGroups
	statements BoundStatements
	logger     logx.Logger
}

// Schema - the schema name.
func (db *Database) Schema() string {
	return db.schema
}

// IsTransact - always false.
func (db *Database) IsTransact() bool {
	return false
}

// Statements - the bound statements, each call on its own auto released client.
func (db *Database) Statements() BoundStatements {
	return db.statements
}

// Call runs a bound statement.
func (db *Database) Call(ctx context.Context, group, name string, args ...any) (any, error) {
	return db.statements.Call(ctx, group, name, args...)
}

// QueryRaw runs sql on a client acquired for this call only.
func (db *Database) QueryRaw(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	client, err := db.clients.AcquireClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Release()

	return QueryRows(ctx, client, db.logger, sql, args...)
}

// Close drains and closes the connection pool.
func (db *Database) Close(ctx context.Context) error {
	return db.pool.CloseDBClientPool(ctx)
}

// BeginTransact pins a client and opens a transaction on it.
// The statements of the returned Transaction all run on that client.
func (db *Database) BeginTransact(ctx context.Context) (*Transaction, error) {
	client, err := db.clients.AcquireClient(ctx)
	if err != nil {
		return nil, err
	}

	txm, err := BeginTransact(ctx, client, db.logger)
	if err != nil {
		return nil, err
	}

	pinned := txClient{tx: txm}

	return &Transaction{
		TxManager:  txm,
		client:     pinned,
		schema:     db.schema,
		statements: BindStatements(db.raw, pinned),
		logger:     db.logger,
	}, nil
}

// Transact runs fn inside a transaction.
//
// The transaction is committed when fn succeeds. When fn fails it is rolled
// back and fn's error is returned; a rollback failure is logged, never returned
// in its place. When fn panics it is rolled back and the panic goes on.
//
// Example Usage:
//
//	_, err := db.Transact(ctx, func(ctx context.Context, tx *dbx.Transaction) (any, error) {
//	    if _, err := tx.Call(ctx, "accounts", "debit", from, amount); err != nil {
//	        return nil, err
//	    }
//	    return tx.Call(ctx, "accounts", "credit", to, amount)
//	})
func (db *Database) Transact(ctx context.Context, fn func(ctx context.Context, tx *Transaction) (any, error)) (result any, err error) {
	tx, err := db.BeginTransact(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				db.logger.LogError(ctx, fmt.Sprintf("Rollback after panic failed for transaction %s", tx.ID()), rbErr)
			}
			panic(r)
		}
	}()

	result, err = fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.LogError(ctx, fmt.Sprintf("Rollback failed for transaction %s", tx.ID()), rbErr)
		}
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// Transact is the typed form of Database.Transact.
func Transact[T any](ctx context.Context, db *Database, fn func(ctx context.Context, tx *Transaction) (T, error)) (T, error) {
	var zero T

	result, err := db.Transact(ctx, func(ctx context.Context, tx *Transaction) (any, error) {
		return fn(ctx, tx)
	})
	if err != nil {
		return zero, err
	}

	typed, _ := result.(T)

	return typed, nil
}

//###################################
//#       Transaction handle        #
//###################################

// Transaction - an open transaction plus the statements pinned to its client.
type Transaction struct {
	*TxManager
	client     Client
	schema     string
	statements BoundStatements
	logger     logx.Logger
}

// Schema - the schema name.
func (t *Transaction) Schema() string {
	return t.schema
}

// IsTransact - always true.
func (t *Transaction) IsTransact() bool {
	return true
}

// Statements - the bound statements, all on the transaction client.
func (t *Transaction) Statements() BoundStatements {
	return t.statements
}

// Call runs a bound statement inside the transaction.
func (t *Transaction) Call(ctx context.Context, group, name string, args ...any) (any, error) {
	return t.statements.Call(ctx, group, name, args...)
}

// QueryRaw runs sql inside the transaction. It fails once the transaction ended.
func (t *Transaction) QueryRaw(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	return QueryRows(ctx, t.client, t.logger, sql, args...)
}
