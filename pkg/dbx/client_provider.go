package dbx

import (
	"context"
	"fmt"
	"time"

	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/marcodd23/go-micro-dbx/pkg/logx"
	"go.opentelemetry.io/otel/trace"
)

// ClientConfig - which optional layers wrap the clients handed out by a ClientProvider.
type ClientConfig struct {
	// Schema is only used to label logs, spans and metrics.
	Schema string
	// LogQueries enables the ClientLogger layer.
	LogQueries bool
	// ProfileQueries enables the ClientProfiler layer.
	ProfileQueries bool
	// SlowQueryThreshold for the ClientProfiler, DefaultSlowQueryThreshold when zero.
	SlowQueryThreshold time.Duration
	Logger             logx.Logger
	// Observer, when set, adds the ClientObserver layer and receives retry events.
	Observer Observer
	// Tracer, when set, adds the ClientTracer layer.
	Tracer trace.Tracer
}

// DefaultClientConfig - profiling on, logging off.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{ProfileQueries: true, SlowQueryThreshold: DefaultSlowQueryThreshold}
}

// ClientProvider acquires raw clients from a pool and decorates them.
//
// Acquisition refused with too many clients (SQLSTATE 53300) is retried up to
// MaxAcquireRetries extra times. The decorator order, innermost first, is
// ClientRetry, ClientLogger, ClientProfiler, ClientTracer, ClientObserver,
// ClientErrorReporter, so only the retry layer ever sees a query more than once.
type ClientProvider struct {
	pool     ClientAcquirer
	config   ClientConfig
	logger   logx.Logger
	observer Observer
}

// NewClientProvider - ClientProvider constructor.
func NewClientProvider(pool ClientAcquirer, config ClientConfig) *ClientProvider {
	return &ClientProvider{
		pool:     pool,
		config:   config,
		logger:   logx.OrDefault(config.Logger),
		observer: observerOrNoOp(config.Observer),
	}
}

// AcquireClient returns a decorated client. The caller owns it and must Release it.
func (p *ClientProvider) AcquireClient(ctx context.Context) (Client, error) {
	var raw Client

	err := retryImmediately(MaxAcquireRetries, func() error {
		var err error
		raw, err = p.pool.AcquireClient(ctx)
		return err
	}, func(err error, attempt int) bool {
		if !errorx.IsTooManyConnections(err) {
			return false
		}

		p.logger.LogDebug(ctx, fmt.Sprintf("Too many clients already, retrying(%d) connection to database", attempt))
		if attempt < MaxAcquireRetries {
			p.observer.ObserveRetry(ctx, RetryTooManyClients)
			return true
		}

		return false
	})
	if err != nil {
		p.logger.LogDebug(ctx, "Error acquiring database client: "+err.Error())
		return nil, err
	}

	return p.Decorate(raw), nil
}

// Decorate wraps raw in the configured decorator chain.
func (p *ClientProvider) Decorate(raw Client) Client {
	var client Client = NewClientRetry(raw, p.logger, p.observer)

	if p.config.LogQueries {
		client = NewClientLogger(client, p.logger)
	}

	if p.config.ProfileQueries {
		client = NewClientProfiler(client, p.logger, p.config.SlowQueryThreshold)
	}

	if p.config.Tracer != nil {
		client = NewClientTracer(client, p.config.Tracer, p.config.Schema)
	}

	if p.config.Observer != nil {
		client = NewClientObserver(client, p.config.Observer, p.config.Schema)
	}

	return NewClientErrorReporter(client, p.logger)
}
