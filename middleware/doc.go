// Package middleware provides composable middleware around worker handlers.
//
// A [Middleware] wraps the handler invoked for one popped event. Middleware
// are composed into a chain using [Chain] and applied right-to-left: the
// first middleware in the slice is the outermost wrapper.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs event id, worker and outcome of each handler call
//   - [Recover]: converts handler panics to errors
//   - [Timeout]: bounds each handler call with a deadline
//   - [Tracing]: wraps the handler call in an OpenTelemetry span
//   - [Metrics]: records handler duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, d *event.Delivery, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
