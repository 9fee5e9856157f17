package dbx

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ClientTracer wraps every query in an OpenTelemetry client span.
type ClientTracer struct {
	clientProxy
	tracer trace.Tracer
	schema string
}

// NewClientTracer - ClientTracer constructor.
func NewClientTracer(inner Client, tracer trace.Tracer, schema string) *ClientTracer {
	return &ClientTracer{clientProxy: clientProxy{inner: inner}, tracer: tracer, schema: schema}
}

func (c *ClientTracer) Query(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	ctx, span := c.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", sql),
			attribute.String("db.schema", c.schema),
		))
	defer span.End()

	rs, err := c.inner.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rs, err
	}

	span.SetAttributes(attribute.Int("db.rows", rs.Len()))

	return rs, nil
}
