package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tempo/backoff"
	"github.com/xraph/tempo/clock"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/middleware"
	"github.com/xraph/tempo/store"
)

// fatalAttempt saturates the error backoff for misconfiguration.
const fatalAttempt = 64

// Option configures a Worker.
type Option func(*Worker)

// WithHandler sets the handler invoked for every popped event.
func WithHandler(h Handler) Option {
	return func(w *Worker) { w.handler = h }
}

// WithClock sets the clock used to stamp deliveries.
func WithClock(c clock.Clock) Option {
	return func(w *Worker) { w.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithExtensions sets the extension registry.
func WithExtensions(r *ext.Registry) Option {
	return func(w *Worker) { w.extensions = r }
}

// WithConcurrency sets the number of consumer goroutines.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithPopTimeout bounds each blocking pop.
func WithPopTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.popTimeout = d
		}
	}
}

// WithMiddleware appends middleware around the handler.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(w *Worker) { w.mws = append(w.mws, mws...) }
}

// WithErrorBackoff sets the delay strategy after a store error.
func WithErrorBackoff(s backoff.Strategy) Option {
	return func(w *Worker) { w.errorBackoff = s }
}

// Worker pops events from the work queue and hands them to a Handler.
type Worker struct {
	store        store.Store
	keys         store.Keys
	handler      Handler
	clock        clock.Clock
	logger       *slog.Logger
	extensions   *ext.Registry
	id           id.ID
	concurrency  int
	popTimeout   time.Duration
	mws          []middleware.Middleware
	mw           middleware.Middleware
	errorBackoff backoff.Strategy

	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a Worker consuming keys.Queue from st. Without WithHandler
// every delivery is logged and dropped.
func New(st store.Store, keys store.Keys, opts ...Option) *Worker {
	w := &Worker{
		store:        st,
		keys:         keys,
		clock:        clock.System{},
		logger:       slog.Default(),
		id:           id.NewWorkerID(),
		concurrency:  1,
		popTimeout:   2 * time.Second,
		errorBackoff: backoff.DefaultError(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.handler == nil {
		w.handler = LogHandler(w.logger)
	}
	w.mw = middleware.Chain(w.mws...)
	return w
}

// ID returns the worker's unique identifier.
func (w *Worker) ID() id.ID { return w.id }

// PopOnce issues one blocking pop. ok is false when the timeout expired
// with nothing available.
func (w *Worker) PopOnce(ctx context.Context) (d event.Delivery, ok bool, err error) {
	value, ok, err := w.store.BlockingPop(ctx, w.keys.Queue, w.popTimeout)
	if err != nil || !ok {
		return event.Delivery{}, false, err
	}
	return event.Delivery{
		ID:         value,
		ReceivedAt: w.clock.Now(),
		WorkerID:   w.id,
	}, true, nil
}

// Handle runs d through the middleware chain and the handler, and reports
// the outcome to extensions. It returns the handler's error.
func (w *Worker) Handle(ctx context.Context, d event.Delivery) error {
	w.extensions.EmitEventDelivered(ctx, d)

	start := time.Now()
	err := w.mw(ctx, &d, func(ctx context.Context) error {
		return w.handler.Handle(ctx, d)
	})
	elapsed := time.Since(start)

	if err != nil {
		w.logger.Debug("event handler failed",
			slog.String("event_id", d.ID),
			slog.String("error", err.Error()),
		)
		w.extensions.EmitHandlerFailed(ctx, d, err)
		return err
	}
	w.extensions.EmitHandlerCompleted(ctx, d, elapsed)
	return nil
}

// Start launches the consumer goroutines. It returns immediately.
func (w *Worker) Start(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.logger.Info("worker starting",
		slog.String("worker_id", w.id.String()),
		slog.String("queue", w.keys.Queue),
		slog.Int("concurrency", w.concurrency),
	)

	for range w.concurrency {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	return nil
}

// Stop signals the consumers to exit and waits for them. Each finishes its
// in-flight pop and handler call first; if ctx expires before that, their
// contexts are cancelled.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopping", slog.String("worker_id", w.id.String()))
	close(w.stopCh)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("worker stopped gracefully", slog.String("worker_id", w.id.String()))
	case <-ctx.Done():
		w.logger.Warn("worker shutdown timed out, cancelling in-flight calls",
			slog.String("worker_id", w.id.String()),
		)
		w.cancel()
		<-done
	}
	w.cancel()
	return nil
}

func (w *Worker) loop(ctx context.Context) {
	defer w.wg.Done()

	var failures int
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		d, ok, err := w.PopOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !w.sleep(w.failureDelay(err, &failures)) {
				return
			}
			continue
		}
		failures = 0
		if !ok {
			continue
		}

		_ = w.Handle(ctx, d)
	}
}

// failureDelay logs err and returns how long to back off.
func (w *Worker) failureDelay(err error, failures *int) time.Duration {
	switch store.Classify(err) {
	case store.KindTransient:
		*failures++
		w.logger.Warn("pop failed, store unavailable",
			slog.String("worker_id", w.id.String()),
			slog.Int("attempt", *failures),
			slog.String("error", err.Error()),
		)
		return w.errorBackoff.Delay(*failures)
	case store.KindFatal:
		w.logger.Error("pop failed, store misconfigured",
			slog.String("worker_id", w.id.String()),
			slog.String("error", err.Error()),
		)
		return w.errorBackoff.Delay(fatalAttempt)
	default:
		*failures++
		w.logger.Error("pop failed",
			slog.String("worker_id", w.id.String()),
			slog.Int("attempt", *failures),
			slog.String("error", err.Error()),
		)
		return w.errorBackoff.Delay(*failures)
	}
}

func (w *Worker) sleep(dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.stopCh:
		return false
	}
}
