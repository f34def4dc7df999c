package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/tempo/event"
)

// Logging returns middleware that logs each handler call. Successful calls
// are logged at Debug so a busy worker stays quiet; failures at Error.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, d *event.Delivery, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("event handler failed",
				slog.String("event_id", d.ID),
				slog.String("worker_id", d.WorkerID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("event handled",
				slog.String("event_id", d.ID),
				slog.String("worker_id", d.WorkerID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
