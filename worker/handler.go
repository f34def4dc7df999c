package worker

import (
	"context"
	"log/slog"

	"github.com/xraph/tempo/event"
)

// Handler processes one popped event. Its error is reported to
// extensions and logs; the event is never redelivered.
type Handler interface {
	Handle(ctx context.Context, d event.Delivery) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d event.Delivery) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, d event.Delivery) error { return f(ctx, d) }

// LogHandler returns a Handler that only logs each delivery.
func LogHandler(logger *slog.Logger) Handler {
	return HandlerFunc(func(_ context.Context, d event.Delivery) error {
		logger.Info("event received",
			slog.String("event_id", d.ID),
			slog.String("worker_id", d.WorkerID.String()),
			slog.Time("received_at", d.ReceivedAt),
		)
		return nil
	})
}
