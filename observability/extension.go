package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*MetricsExtension)(nil)
	_ ext.EventScheduled   = (*MetricsExtension)(nil)
	_ ext.EventCancelled   = (*MetricsExtension)(nil)
	_ ext.EventsDispatched = (*MetricsExtension)(nil)
	_ ext.DispatchConflict = (*MetricsExtension)(nil)
	_ ext.EventDelivered   = (*MetricsExtension)(nil)
	_ ext.HandlerCompleted = (*MetricsExtension)(nil)
	_ ext.HandlerFailed    = (*MetricsExtension)(nil)
)

const meterName = "github.com/xraph/tempo/observability"

// MetricsExtension records lifecycle metrics through an OTel meter.
type MetricsExtension struct {
	EventScheduled   metric.Int64Counter
	EventCancelled   metric.Int64Counter
	EventDispatched  metric.Int64Counter
	DispatchConflict metric.Int64Counter
	EventDelivered   metric.Int64Counter
	HandlerCompleted metric.Int64Counter
	HandlerFailed    metric.Int64Counter
	DispatchLag      metric.Float64Histogram
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension on the provided meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		// The API returns a noop instrument alongside any error.
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	lag, _ := meter.Float64Histogram("tempo.dispatch.lag",
		metric.WithDescription("Delay between an event's due time and its relocation"),
		metric.WithUnit("s"),
	)
	return &MetricsExtension{
		EventScheduled:   counter("tempo.event.scheduled", "Events written to the time index"),
		EventCancelled:   counter("tempo.event.cancelled", "Pending events removed before dispatch"),
		EventDispatched:  counter("tempo.event.dispatched", "Events relocated to the work queue"),
		DispatchConflict: counter("tempo.dispatch.conflicts", "Dispatch transactions aborted by a concurrent writer"),
		EventDelivered:   counter("tempo.event.delivered", "Events popped by workers"),
		HandlerCompleted: counter("tempo.handler.completed", "Handler calls that returned nil"),
		HandlerFailed:    counter("tempo.handler.failed", "Handler calls that returned an error"),
		DispatchLag:      lag,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Scheduling hooks ────────────────────────────────

// OnEventScheduled implements ext.EventScheduled.
func (m *MetricsExtension) OnEventScheduled(ctx context.Context, _ *event.Event) error {
	m.EventScheduled.Add(ctx, 1)
	return nil
}

// OnEventCancelled implements ext.EventCancelled.
func (m *MetricsExtension) OnEventCancelled(ctx context.Context, _ string) error {
	m.EventCancelled.Add(ctx, 1)
	return nil
}

// ── Dispatch hooks ──────────────────────────────────

// OnEventsDispatched implements ext.EventsDispatched.
func (m *MetricsExtension) OnEventsDispatched(ctx context.Context, events []event.Event, at time.Time) error {
	m.EventDispatched.Add(ctx, int64(len(events)))
	for _, ev := range events {
		lag := at.Sub(ev.DueAt).Seconds()
		if lag < 0 {
			lag = 0
		}
		m.DispatchLag.Record(ctx, lag)
	}
	return nil
}

// OnDispatchConflict implements ext.DispatchConflict.
func (m *MetricsExtension) OnDispatchConflict(ctx context.Context, _ int) error {
	m.DispatchConflict.Add(ctx, 1)
	return nil
}

// ── Worker hooks ────────────────────────────────────

// OnEventDelivered implements ext.EventDelivered.
func (m *MetricsExtension) OnEventDelivered(ctx context.Context, _ event.Delivery) error {
	m.EventDelivered.Add(ctx, 1)
	return nil
}

// OnHandlerCompleted implements ext.HandlerCompleted.
func (m *MetricsExtension) OnHandlerCompleted(ctx context.Context, _ event.Delivery, _ time.Duration) error {
	m.HandlerCompleted.Add(ctx, 1)
	return nil
}

// OnHandlerFailed implements ext.HandlerFailed.
func (m *MetricsExtension) OnHandlerFailed(ctx context.Context, _ event.Delivery, _ error) error {
	m.HandlerFailed.Add(ctx, 1)
	return nil
}
