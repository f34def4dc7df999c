package middleware

import (
	"context"
	"time"

	"github.com/xraph/tempo/event"
)

// Timeout returns middleware that bounds every handler call by d. The
// handler should return once its context is done. A non-positive d
// disables the deadline.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *event.Delivery, next Handler) error {
		if d <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
