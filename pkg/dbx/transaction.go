package dbx

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// TxState - lifecycle of a TxManager.
type TxState int

const (
	TxNotStarted TxState = iota
	TxOpen
	TxEnded
)

func (s TxState) String() string {
	switch s {
	case TxNotStarted:
		return "not started"
	case TxOpen:
		return "open"
	case TxEnded:
		return "ended"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

//###################################
//#       Transaction Manager       #
//###################################

// TxManager drives BEGIN/COMMIT/ROLLBACK on one pinned client.
//
// The client is released exactly once, when the transaction ends. Once ended,
// the transaction stays ended: further Commit or Rollback calls fail with
// errorx.ErrTransactionEnded and touch nothing.
type TxManager struct {
	mu     sync.Mutex
	client Client
	state  TxState
	txId   string
	logger logx.Logger
}

// BeginTransact issues BEGIN on client and returns the open transaction.
//
// Arguments:
//   - ctx: The context for the BEGIN statement.
//   - client: The connection to pin. Ownership moves to the transaction.
//   - logger: Logger for the transaction lifecycle, logx.GetLogger() when nil.
//
// Returns:
//   - *TxManager: the open transaction.
//   - error: the BEGIN failure. The client has already been released in that case.
//
// Example Usage:
//
//	tx, err := dbx.BeginTransact(ctx, client, nil)
//	if err != nil {
//	    return err
//	}
//	if _, err := client.Query(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID); err != nil {
//	    _ = tx.Rollback(ctx)
//	    return err
//	}
//	return tx.Commit(ctx)
func BeginTransact(ctx context.Context, client Client, logger logx.Logger) (*TxManager, error) {
	tx := &TxManager{client: client, state: TxNotStarted, txId: uuid.NewString(), logger: logx.OrDefault(logger)}

	if _, err := client.Query(ctx, "BEGIN"); err != nil {
		client.Release()
		tx.state = TxEnded
		return nil, err
	}

	tx.state = TxOpen
	tx.logger.LogTrace(ctx, fmt.Sprintf("Transaction %s started", tx.txId))

	return tx, nil
}

// Commit issues COMMIT and releases the client, even when COMMIT fails.
func (tx *TxManager) Commit(ctx context.Context) error {
	return tx.end(ctx, "COMMIT")
}

// Rollback issues ROLLBACK and releases the client, even when ROLLBACK fails.
func (tx *TxManager) Rollback(ctx context.Context) error {
	return tx.end(ctx, "ROLLBACK")
}

func (tx *TxManager) end(ctx context.Context, statement string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.state != TxOpen {
		return errorx.ErrTransactionEnded
	}

	tx.state = TxEnded
	defer tx.client.Release()

	if _, err := tx.client.Query(ctx, statement); err != nil {
		tx.logger.LogDebug(ctx, fmt.Sprintf("%s failed for transaction %s", statement, tx.txId))
		return err
	}

	tx.logger.LogTrace(ctx, fmt.Sprintf("Transaction %s: %s", tx.txId, statement))

	return nil
}

// State - current lifecycle state.
func (tx *TxManager) State() TxState {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	return tx.state
}

// IsOpen - true between BEGIN and COMMIT/ROLLBACK.
func (tx *TxManager) IsOpen() bool {
	return tx.State() == TxOpen
}

// ID - random identifier used in logs.
func (tx *TxManager) ID() string {
	return tx.txId
}

// txClient guards the pinned client so nothing runs on it after the transaction ended.
// Release is a no-op: the TxManager owns the connection.
type txClient struct {
	tx *TxManager
}

func (c txClient) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	if !c.tx.IsOpen() {
		return nil, errorx.ErrTransactionEnded
	}

	return c.tx.client.Query(ctx, sql, args...)
}

func (c txClient) Release() {}

func (c txClient) retryObserver() Observer {
	return observerOf(c.tx.client)
}
