//nolint:gochecknoglobals
package logx

import (
	"context"
	"sync/atomic"
)

type ServiceContext struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// Logger - logger interface.
type Logger interface {
	// LogTrace logs a message at Trace level. Used for very chatty events like pool acquire/release.
	LogTrace(ctx context.Context, msg string)
	// LogDebug logs a message at Debug level.
	LogDebug(ctx context.Context, msg string)
	// LogInfo logs a message at Info level.
	LogInfo(ctx context.Context, msg string)
	// LogWarning logs a message at Warning level.
	LogWarning(ctx context.Context, msg string, errs ...error)
	// LogError logs a message at Error level.
	LogError(ctx context.Context, msg string, errs ...error)
	// LogPanic logs a message at Panic level then panics.
	LogPanic(ctx context.Context, msg string, errs ...error)
	// LogFatal logs a message at Fatal Level.
	// The logger then calls os.Exit(1), even if logging at FatalLevel is
	// disabled.
	LogFatal(ctx context.Context, msg string, errs ...error)

	GetLogger() interface{}
}

var logger atomic.Pointer[Logger]

// GetLogger - returns the process wide Logger.
// If called before SetupLogger a no-op logger will be returned.
func GetLogger() Logger {
	if l := logger.Load(); l != nil {
		return *l
	}

	return NoOpLogger{}
}

// SetLogger - replace the process wide Logger. A nil value restores the no-op logger.
func SetLogger(l Logger) {
	if l == nil {
		logger.Store(nil)
		return
	}

	logger.Store(&l)
}

// OrDefault returns l, or the process wide Logger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return GetLogger()
	}

	return l
}

// NoOpLogger - Logger implementation that does nothing.
type NoOpLogger struct{}

// LogTrace noop.
func (NoOpLogger) LogTrace(ctx context.Context, msg string) {}

// LogDebug noop.
func (NoOpLogger) LogDebug(ctx context.Context, msg string) {}

// LogInfo noop.
func (NoOpLogger) LogInfo(ctx context.Context, msg string) {}

// LogWarning noop.
func (NoOpLogger) LogWarning(ctx context.Context, msg string, errs ...error) {}

// LogError noop.
func (NoOpLogger) LogError(ctx context.Context, msg string, errs ...error) {}

// LogPanic panics with msg, the only level a no-op logger cannot swallow.
func (NoOpLogger) LogPanic(ctx context.Context, msg string, errs ...error) {
	panic(msg)
}

// LogFatal noop.
func (NoOpLogger) LogFatal(ctx context.Context, msg string, errs ...error) {}

// GetLogger noop.
func (NoOpLogger) GetLogger() interface{} { return nil }
