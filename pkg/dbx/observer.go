package dbx

import (
	"context"
	"time"
)

// RetryReason - why a retry loop decided to try again.
type RetryReason string

const (
	RetryDeadlock        RetryReason = "deadlock"
	RetryTooManyClients  RetryReason = "too_many_clients"
	RetryUniqueViolation RetryReason = "unique_violation"
)

// QueryEvent - one caller visible query, as seen from outside the retry loop.
type QueryEvent struct {
	Schema   string
	SQL      string
	Duration time.Duration
	Rows     int
	Err      error
}

// Observer receives the operational events of the data access layer.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveQuery(ctx context.Context, event QueryEvent)
	ObserveRetry(ctx context.Context, reason RetryReason)
	ObserveAcquired(schema string, acquired int64)
}

// NoOpObserver discards every event.
type NoOpObserver struct{}

func (NoOpObserver) ObserveQuery(ctx context.Context, event QueryEvent) {}

func (NoOpObserver) ObserveRetry(ctx context.Context, reason RetryReason) {}

func (NoOpObserver) ObserveAcquired(schema string, acquired int64) {}

func observerOrNoOp(o Observer) Observer {
	if o == nil {
		return NoOpObserver{}
	}

	return o
}
