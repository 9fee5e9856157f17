// Package metrics exports the data access layer events as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/marcodd23/go-micro-dbx/pkg/dbx"
	"github.com/marcodd23/go-micro-dbx/pkg/errorx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unknownSQLState = "unknown"

// Observer - dbx.Observer backed by Prometheus collectors.
type Observer struct {
	acquiredClients *prometheus.GaugeVec
	queryDuration   *prometheus.HistogramVec
	queryErrors     *prometheus.CounterVec
	retries         *prometheus.CounterVec
}

var _ dbx.Observer = (*Observer)(nil)

// NewObserver registers the collectors on reg, prometheus.DefaultRegisterer when nil.
//
// Registering twice on the same registerer with the same namespace panics, as promauto does.
func NewObserver(namespace string, reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Observer{
		acquiredClients: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_clients_acquired",
				Help:      "Number of database clients currently out of the pool",
			},
			[]string{"schema"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds, retries included",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 4, 10},
			},
			[]string{"schema", "status"},
		),
		queryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_query_errors_total",
				Help:      "Total number of failed database queries by SQLSTATE",
			},
			[]string{"schema", "sqlstate"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_retries_total",
				Help:      "Total number of retried database operations",
			},
			[]string{"reason"},
		),
	}
}

func (o *Observer) ObserveQuery(ctx context.Context, event dbx.QueryEvent) {
	status := "success"
	if event.Err != nil {
		status = "error"

		state := errorx.SQLState(event.Err)
		if state == "" {
			state = unknownSQLState
		}
		o.queryErrors.WithLabelValues(event.Schema, state).Inc()
	}

	o.queryDuration.WithLabelValues(event.Schema, status).Observe(event.Duration.Seconds())
}

func (o *Observer) ObserveRetry(ctx context.Context, reason dbx.RetryReason) {
	o.retries.WithLabelValues(string(reason)).Inc()
}

func (o *Observer) ObserveAcquired(schema string, acquired int64) {
	o.acquiredClients.WithLabelValues(schema).Set(float64(acquired))
}
