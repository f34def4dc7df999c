package ext

import (
	"context"
	"time"

	"github.com/xraph/tempo/event"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Scheduling hooks
// ──────────────────────────────────────────────────

// EventScheduled is called after an event is written to the time index.
type EventScheduled interface {
	OnEventScheduled(ctx context.Context, ev *event.Event) error
}

// EventCancelled is called after a pending event is removed from the index.
type EventCancelled interface {
	OnEventCancelled(ctx context.Context, eventID string) error
}

// ──────────────────────────────────────────────────
// Dispatch hooks
// ──────────────────────────────────────────────────

// EventsDispatched is called after a dispatcher commits a relocation.
// Each event carries the due time it was scheduled for, so dispatchedAt
// minus DueAt is the dispatch lag.
type EventsDispatched interface {
	OnEventsDispatched(ctx context.Context, events []event.Event, dispatchedAt time.Time) error
}

// DispatchConflict is called when a dispatcher loses an optimistic race.
// attempt counts consecutive conflicts.
type DispatchConflict interface {
	OnDispatchConflict(ctx context.Context, attempt int) error
}

// ──────────────────────────────────────────────────
// Worker hooks
// ──────────────────────────────────────────────────

// EventDelivered is called when a worker pops an event, before the handler runs.
type EventDelivered interface {
	OnEventDelivered(ctx context.Context, d event.Delivery) error
}

// HandlerCompleted is called after a handler returns nil.
type HandlerCompleted interface {
	OnHandlerCompleted(ctx context.Context, d event.Delivery, elapsed time.Duration) error
}

// HandlerFailed is called after a handler returns an error. The event is
// not redelivered.
type HandlerFailed interface {
	OnHandlerFailed(ctx context.Context, d event.Delivery, err error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
