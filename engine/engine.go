package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/clock"
	"github.com/xraph/tempo/dispatcher"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
	mw "github.com/xraph/tempo/middleware"
	"github.com/xraph/tempo/observability"
	"github.com/xraph/tempo/scheduler"
	"github.com/xraph/tempo/store"
	"github.com/xraph/tempo/worker"
)

const instrumentationName = "github.com/xraph/tempo"

// Engine composes the components of one tempo process.
type Engine struct {
	t          *tempo.Tempo
	store      store.Store
	keys       store.Keys
	extensions *ext.Registry
	logger     *slog.Logger
	clock      clock.Clock

	scheduler  *scheduler.Scheduler
	dispatcher *dispatcher.Dispatcher
	worker     *worker.Worker

	runDispatcher  bool
	runWorker      bool
	handler        worker.Handler
	mws            []mw.Middleware
	handlerTimeout time.Duration

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithDispatcher enables the dispatcher role in this process.
func WithDispatcher(enabled bool) Option {
	return func(eng *Engine) { eng.runDispatcher = enabled }
}

// WithWorker enables the worker role in this process.
func WithWorker(enabled bool) Option {
	return func(eng *Engine) { eng.runWorker = enabled }
}

// WithHandler sets the handler invoked for every event the worker pops.
// Without one, deliveries are logged.
func WithHandler(h worker.Handler) Option {
	return func(eng *Engine) { eng.handler = h }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.extensions.Register(e) }
}

// WithMiddleware adds middleware to the handler chain, inside the
// built-in recover, tracing, metrics and logging middleware.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithHandlerTimeout bounds each handler call.
func WithHandlerTimeout(d time.Duration) Option {
	return func(eng *Engine) { eng.handlerTimeout = d }
}

// WithClock sets the clock used for due times and deliveries.
func WithClock(c clock.Clock) Option {
	return func(eng *Engine) { eng.clock = c }
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension. If not set, the global
// provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// Build creates an Engine on t. The store held by t must implement
// store.Store.
func Build(t *tempo.Tempo, opts ...Option) (*Engine, error) {
	logger := t.Logger()
	cfg := t.Config()

	st, ok := t.Store().(store.Store)
	if !ok {
		return nil, fmt.Errorf("%w: store does not implement store.Store", tempo.ErrNoStore)
	}

	eng := &Engine{
		t:          t,
		store:      st,
		keys:       store.NewKeys(cfg.KeyPrefix, cfg.HashTag),
		extensions: ext.NewRegistry(logger),
		logger:     logger,
		clock:      clock.System{},
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Register the observability metrics extension.
	if eng.meterProvider != nil {
		eng.extensions.Register(observability.NewMetricsExtensionWithMeter(
			eng.meterProvider.Meter(instrumentationName + "/observability"),
		))
	} else {
		eng.extensions.Register(observability.NewMetricsExtension())
	}

	if eng.runDispatcher {
		eng.dispatcher = dispatcher.New(st, eng.keys,
			dispatcher.WithClock(eng.clock),
			dispatcher.WithLogger(logger),
			dispatcher.WithExtensions(eng.extensions),
			dispatcher.WithBatchSize(cfg.BatchSize),
			dispatcher.WithMaxIdle(cfg.MaxIdle),
			dispatcher.WithPollRate(cfg.PollRate),
		)
		t.AddRunner(eng.dispatcher)
	}

	schedOpts := []scheduler.Option{
		scheduler.WithClock(eng.clock),
		scheduler.WithLogger(logger),
		scheduler.WithExtensions(eng.extensions),
	}
	if eng.dispatcher != nil {
		schedOpts = append(schedOpts, scheduler.WithNotify(eng.dispatcher.Notify))
	}
	eng.scheduler = scheduler.New(st, eng.keys, schedOpts...)

	if eng.runWorker {
		eng.worker = worker.New(st, eng.keys,
			worker.WithClock(eng.clock),
			worker.WithLogger(logger),
			worker.WithExtensions(eng.extensions),
			worker.WithConcurrency(cfg.Concurrency),
			worker.WithPopTimeout(cfg.PopTimeout),
			worker.WithHandler(eng.handler),
			worker.WithMiddleware(eng.middleware()...),
		)
		t.AddRunner(eng.worker)
	}

	t.SetExtensions(eng.extensions)
	return eng, nil
}

// middleware builds the handler chain:
// recover → tracing → metrics → logging → user middleware → timeout.
func (eng *Engine) middleware() []mw.Middleware {
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	} else {
		tracingMw = mw.Tracing()
	}

	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
	} else {
		metricsMw = mw.Metrics()
	}

	all := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	all = append(all, eng.mws...)
	if eng.handlerTimeout > 0 {
		all = append(all, mw.Timeout(eng.handlerTimeout))
	}
	return all
}

// Start starts the enabled roles.
func (eng *Engine) Start(ctx context.Context) error { return eng.t.Start(ctx) }

// Stop stops the enabled roles and closes the store.
func (eng *Engine) Stop(ctx context.Context) error { return eng.t.Stop(ctx) }

// Schedule makes eventID due interval from now.
func (eng *Engine) Schedule(ctx context.Context, eventID string, category event.Category, interval time.Duration) (*event.Event, error) {
	return eng.scheduler.Schedule(ctx, eventID, category, interval)
}

// Scheduler returns the scheduler.
func (eng *Engine) Scheduler() *scheduler.Scheduler { return eng.scheduler }

// Dispatcher returns the dispatcher, or nil when the role is disabled.
func (eng *Engine) Dispatcher() *dispatcher.Dispatcher { return eng.dispatcher }

// Worker returns the worker, or nil when the role is disabled.
func (eng *Engine) Worker() *worker.Worker { return eng.worker }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Keys returns the store keys of this deployment.
func (eng *Engine) Keys() store.Keys { return eng.keys }

// Tempo returns the underlying Tempo.
func (eng *Engine) Tempo() *tempo.Tempo { return eng.t }
