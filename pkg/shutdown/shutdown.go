package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/logx"
)

// Cleanup - a resource release step run at shutdown, e.g. closing the HTTP server
// or draining the database pool.
type Cleanup func(timeoutCtx context.Context) error

// WaitForShutdown waits for SIGINT or SIGTERM, then runs the cleanups in order
// within a context bounded by timeout.
//
// Parameters:
//   - rootCtx: The parent context.
//   - timeout: How long the cleanups have, all together.
//   - cleanups: The steps to run. A failing step is logged and the next one still runs.
//
// Usage:
//
//	err := shutdown.WaitForShutdown(ctx, 5*time.Second,
//	    func(ctx context.Context) error { return server.Shutdown(ctx) },
//	    db.Close,
//	)
func WaitForShutdown(rootCtx context.Context, timeout time.Duration, cleanups ...Cleanup) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	return waitAndCleanUp(rootCtx, signals, timeout, cleanups...)
}

func waitAndCleanUp(rootCtx context.Context, signals <-chan os.Signal, timeout time.Duration, cleanups ...Cleanup) error {
	select {
	case sig := <-signals:
		logx.GetLogger().LogDebug(rootCtx, fmt.Sprintf("Interrupt signal captured: %s", sig.String()))
	case <-rootCtx.Done():
		logx.GetLogger().LogDebug(rootCtx, "Root context done, shutting down")
	}

	// rootCtx may already be cancelled, the cleanups get their own deadline
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(rootCtx), timeout)
	defer cancel()

	return cleanUp(timeoutCtx, cleanups...)
}

// cleanUp runs every cleanup, stopping to wait when timeoutCtx is done.
func cleanUp(timeoutCtx context.Context, cleanups ...Cleanup) error {
	logx.GetLogger().LogInfo(timeoutCtx, "Cleaning up all resources ....")

	done := make(chan error, 1)

	go func() {
		var errs []error
		for _, cleanup := range cleanups {
			if cleanup == nil {
				continue
			}
			if err := cleanup(timeoutCtx); err != nil {
				logx.GetLogger().LogError(timeoutCtx, "Cleanup step failed", err)
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case <-timeoutCtx.Done():
		logx.GetLogger().LogError(timeoutCtx, "Deadline exceeded during context cancellation", timeoutCtx.Err())
		return timeoutCtx.Err()
	case err := <-done:
		if err == nil {
			logx.GetLogger().LogInfo(timeoutCtx, "All resources cleaned up")
		}
		return err
	}
}
