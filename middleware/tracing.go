package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/tempo/event"
)

// tracerName is the instrumentation scope name for tempo tracing.
const tracerName = "github.com/xraph/tempo"

// Tracing returns middleware that wraps each handler call in an
// OpenTelemetry span. Without a configured TracerProvider the global noop
// tracer is used.
//
// Span attributes: tempo.event.id, tempo.worker.id, tempo.received_at.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, d *event.Delivery, next Handler) error {
		ctx, span := tracer.Start(ctx, "tempo.event.handle",
			trace.WithAttributes(
				attribute.String("tempo.event.id", d.ID),
				attribute.String("tempo.worker.id", d.WorkerID.String()),
				attribute.Int64("tempo.received_at", d.ReceivedAt.UnixMilli()),
			),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
