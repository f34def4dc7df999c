package tempo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Option configures a Tempo.
type Option func(*Tempo) error

// Storer is the minimal store interface held by Tempo. It covers lifecycle
// operations only; the engine package works with the full store.Store.
type Storer interface {
	Ping(ctx context.Context) error
	Close() error
}

// Runner is a background component with a start/stop lifecycle.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// extensionEmitter is an internal interface for extension lifecycle events.
type extensionEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Tempo holds the configuration, store and background runners of one
// process. Create one with New, then hand it to engine.Build, which
// attaches the scheduler, dispatcher and worker.
type Tempo struct {
	config     Config
	logger     *slog.Logger
	store      Storer
	extensions extensionEmitter

	mu      sync.Mutex
	runners []Runner
	started bool
}

// New creates a Tempo with the given options.
func New(opts ...Option) (*Tempo, error) {
	t := &Tempo{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.store == nil {
		return nil, ErrNoStore
	}
	if err := t.config.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Logger returns the logger.
func (t *Tempo) Logger() *slog.Logger { return t.logger }

// Store returns the store.
func (t *Tempo) Store() Storer { return t.store }

// Config returns a copy of the configuration.
func (t *Tempo) Config() Config { return t.config }

// AddRunner registers a background component started by Start and stopped
// by Stop. Runners start in registration order.
func (t *Tempo) AddRunner(r Runner) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runners = append(t.runners, r)
}

// SetExtensions sets the extension emitter notified on shutdown.
func (t *Tempo) SetExtensions(e extensionEmitter) { t.extensions = e }

// Start verifies the store is reachable and starts every runner. If one
// fails to start, the runners already started are stopped again.
func (t *Tempo) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrAlreadyStarted
	}
	if err := t.store.Ping(ctx); err != nil {
		return fmt.Errorf("tempo: ping store: %w", err)
	}
	for i, r := range t.runners {
		if err := r.Start(ctx); err != nil {
			for _, prev := range t.runners[:i] {
				_ = prev.Stop(ctx)
			}
			return fmt.Errorf("tempo: start: %w", err)
		}
	}
	t.started = true
	t.logger.Info("tempo started",
		slog.String("key_prefix", t.config.KeyPrefix),
		slog.Int("runners", len(t.runners)),
	)
	return nil
}

// Stop stops every runner concurrently, waiting at most
// Config.ShutdownTimeout, then notifies extensions and closes the store.
func (t *Tempo) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return ErrNotStarted
	}
	t.started = false
	runners := append([]Runner(nil), t.runners...)
	t.mu.Unlock()

	if t.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error { return r.Stop(gctx) })
	}
	if err := g.Wait(); err != nil {
		t.logger.Error("runner stop error", slog.String("error", err.Error()))
	}

	if t.extensions != nil {
		t.extensions.EmitShutdown(ctx)
	}
	t.logger.Info("tempo stopped")
	return t.store.Close()
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(t *Tempo) error {
		t.config = cfg
		return nil
	}
}

// WithKeyPrefix sets the deployment key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(t *Tempo) error {
		t.config.KeyPrefix = prefix
		return nil
	}
}

// WithHashTag controls whether keys carry a Redis Cluster hash tag.
func WithHashTag(enabled bool) Option {
	return func(t *Tempo) error {
		t.config.HashTag = enabled
		return nil
	}
}

// WithBatchSize sets the maximum events relocated per transaction.
func WithBatchSize(n int) Option {
	return func(t *Tempo) error {
		t.config.BatchSize = n
		return nil
	}
}

// WithConcurrency sets the number of worker consumer goroutines.
func WithConcurrency(n int) Option {
	return func(t *Tempo) error {
		t.config.Concurrency = n
		return nil
	}
}

// WithPopTimeout bounds each blocking pop issued by a worker.
func WithPopTimeout(d time.Duration) Option {
	return func(t *Tempo) error {
		t.config.PopTimeout = d
		return nil
	}
}

// WithShutdownTimeout sets how long Stop waits for runners to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(t *Tempo) error {
		t.config.ShutdownTimeout = d
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tempo) error {
		t.logger = l
		return nil
	}
}

// WithStore sets the backing store. It normally implements the full
// store.Store interface.
func WithStore(s Storer) Option {
	return func(t *Tempo) error {
		t.store = s
		return nil
	}
}
