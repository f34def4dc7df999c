// Package ext defines the extension system for tempo.
//
// Extensions are notified of lifecycle events and can react to them,
// for example by recording metrics or writing audit logs. Each lifecycle
// hook is a separate interface so extensions opt in only to the events
// they care about.
//
// # Implementing an Extension
//
//	type lagLogger struct{}
//
//	func (lagLogger) Name() string { return "lag-logger" }
//
//	func (lagLogger) OnEventsDispatched(ctx context.Context, evs []event.Event, at time.Time) error {
//	    for _, ev := range evs {
//	        log.Printf("%s dispatched %s late", ev.ID, at.Sub(ev.DueAt))
//	    }
//	    return nil
//	}
//
// # Hooks
//
//   - [EventScheduled]: an event was written to the time index
//   - [EventCancelled]: a pending event was removed
//   - [EventsDispatched]: a dispatcher committed a relocation
//   - [DispatchConflict]: a dispatcher lost an optimistic race
//   - [EventDelivered]: a worker popped an event
//   - [HandlerCompleted] / [HandlerFailed]: the handler returned
//   - [Shutdown]: the engine is shutting down
//
// Hook errors are logged and never propagated.
package ext
