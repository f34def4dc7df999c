package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/tempo/event"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, d *event.Delivery, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("event handler panicked",
					slog.String("event_id", d.ID),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				retErr = fmt.Errorf("panic handling event %s: %v", d.ID, r)
			}
		}()
		return next(ctx)
	}
}
