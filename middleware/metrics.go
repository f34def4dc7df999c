package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/tempo/event"
)

// meterName is the instrumentation scope name for tempo metrics.
const meterName = "github.com/xraph/tempo"

// Metrics returns middleware that records handler metrics using the global
// OTel MeterProvider.
//
// Instruments:
//   - tempo.handler.duration (Float64Histogram): handler time in seconds,
//     attribute status ("ok" or "error")
//   - tempo.handler.executions (Int64Counter): handler calls,
//     attribute status ("ok" or "error")
//
// Event ids are not used as attributes; they are unbounded.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"tempo.handler.duration",
		metric.WithDescription("Duration of event handler calls in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"tempo.handler.executions",
		metric.WithDescription("Total number of event handler calls"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, _ *event.Delivery, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(attribute.String("status", status))

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
