package dbx

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// MaxQueryRetries - extra attempts granted to a query failing with a deadlock.
	MaxQueryRetries = 3
	// MaxAcquireRetries - extra attempts granted to an acquisition refused with too many clients.
	MaxAcquireRetries = 3
)

// retryImmediately runs op again right away while shouldRetry accepts the failure.
// shouldRetry receives the zero based index of the failed attempt and owns the
// retry budget, maxRetries only caps the loop.
func retryImmediately(maxRetries uint64, op func() error, shouldRetry func(err error, attempt int) bool) error {
	attempt := 0

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		retry := shouldRetry(err, attempt)
		attempt++
		if !retry {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxRetries))
}

// retryUntilCancelled runs op again right away while shouldRetry accepts the
// failure, with no attempt limit. Only ctx stops a failure streak.
func retryUntilCancelled(ctx context.Context, op func() error, shouldRetry func(err error) bool) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if !shouldRetry(err) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(&backoff.ZeroBackOff{}, ctx))
}

// pollUntil checks cond, then up to retries more times spaced by interval.
// It reports whether cond was met, it never fails.
func pollUntil(ctx context.Context, retries int, interval time.Duration, cond func() bool) bool {
	if retries < 0 {
		retries = 0
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(retries)), ctx)

	err := backoff.Retry(func() error {
		if cond() {
			return nil
		}

		return errNotYet
	}, b)

	return err == nil
}

type pollError struct{}

func (pollError) Error() string { return "condition not met yet" }

var errNotYet error = pollError{}
