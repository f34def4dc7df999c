package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tempo/event"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time.
type eventScheduledEntry struct {
	name string
	hook EventScheduled
}

type eventCancelledEntry struct {
	name string
	hook EventCancelled
}

type eventsDispatchedEntry struct {
	name string
	hook EventsDispatched
}

type dispatchConflictEntry struct {
	name string
	hook DispatchConflict
}

type eventDeliveredEntry struct {
	name string
	hook EventDelivered
}

type handlerCompletedEntry struct {
	name string
	hook HandlerCompleted
}

type handlerFailedEntry struct {
	name string
	hook HandlerFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. Register every extension before starting any loop; emit methods
// may then be called concurrently. A nil *Registry emits nothing.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	eventScheduled   []eventScheduledEntry
	eventCancelled   []eventCancelledEntry
	eventsDispatched []eventsDispatchedEntry
	dispatchConflict []dispatchConflictEntry
	eventDelivered   []eventDeliveredEntry
	handlerCompleted []handlerCompletedEntry
	handlerFailed    []handlerFailedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(EventScheduled); ok {
		r.eventScheduled = append(r.eventScheduled, eventScheduledEntry{name, h})
	}
	if h, ok := e.(EventCancelled); ok {
		r.eventCancelled = append(r.eventCancelled, eventCancelledEntry{name, h})
	}
	if h, ok := e.(EventsDispatched); ok {
		r.eventsDispatched = append(r.eventsDispatched, eventsDispatchedEntry{name, h})
	}
	if h, ok := e.(DispatchConflict); ok {
		r.dispatchConflict = append(r.dispatchConflict, dispatchConflictEntry{name, h})
	}
	if h, ok := e.(EventDelivered); ok {
		r.eventDelivered = append(r.eventDelivered, eventDeliveredEntry{name, h})
	}
	if h, ok := e.(HandlerCompleted); ok {
		r.handlerCompleted = append(r.handlerCompleted, handlerCompletedEntry{name, h})
	}
	if h, ok := e.(HandlerFailed); ok {
		r.handlerFailed = append(r.handlerFailed, handlerFailedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension {
	if r == nil {
		return nil
	}
	return r.extensions
}

// EmitEventScheduled notifies all extensions that implement EventScheduled.
func (r *Registry) EmitEventScheduled(ctx context.Context, ev *event.Event) {
	if r == nil {
		return
	}
	for _, e := range r.eventScheduled {
		if err := e.hook.OnEventScheduled(ctx, ev); err != nil {
			r.logHookError("OnEventScheduled", e.name, err)
		}
	}
}

// EmitEventCancelled notifies all extensions that implement EventCancelled.
func (r *Registry) EmitEventCancelled(ctx context.Context, eventID string) {
	if r == nil {
		return
	}
	for _, e := range r.eventCancelled {
		if err := e.hook.OnEventCancelled(ctx, eventID); err != nil {
			r.logHookError("OnEventCancelled", e.name, err)
		}
	}
}

// EmitEventsDispatched notifies all extensions that implement EventsDispatched.
func (r *Registry) EmitEventsDispatched(ctx context.Context, events []event.Event, dispatchedAt time.Time) {
	if r == nil {
		return
	}
	for _, e := range r.eventsDispatched {
		if err := e.hook.OnEventsDispatched(ctx, events, dispatchedAt); err != nil {
			r.logHookError("OnEventsDispatched", e.name, err)
		}
	}
}

// EmitDispatchConflict notifies all extensions that implement DispatchConflict.
func (r *Registry) EmitDispatchConflict(ctx context.Context, attempt int) {
	if r == nil {
		return
	}
	for _, e := range r.dispatchConflict {
		if err := e.hook.OnDispatchConflict(ctx, attempt); err != nil {
			r.logHookError("OnDispatchConflict", e.name, err)
		}
	}
}

// EmitEventDelivered notifies all extensions that implement EventDelivered.
func (r *Registry) EmitEventDelivered(ctx context.Context, d event.Delivery) {
	if r == nil {
		return
	}
	for _, e := range r.eventDelivered {
		if err := e.hook.OnEventDelivered(ctx, d); err != nil {
			r.logHookError("OnEventDelivered", e.name, err)
		}
	}
}

// EmitHandlerCompleted notifies all extensions that implement HandlerCompleted.
func (r *Registry) EmitHandlerCompleted(ctx context.Context, d event.Delivery, elapsed time.Duration) {
	if r == nil {
		return
	}
	for _, e := range r.handlerCompleted {
		if err := e.hook.OnHandlerCompleted(ctx, d, elapsed); err != nil {
			r.logHookError("OnHandlerCompleted", e.name, err)
		}
	}
}

// EmitHandlerFailed notifies all extensions that implement HandlerFailed.
func (r *Registry) EmitHandlerFailed(ctx context.Context, d event.Delivery, handlerErr error) {
	if r == nil {
		return
	}
	for _, e := range r.handlerFailed {
		if err := e.hook.OnHandlerFailed(ctx, d, handlerErr); err != nil {
			r.logHookError("OnHandlerFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	if r == nil {
		return
	}
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
