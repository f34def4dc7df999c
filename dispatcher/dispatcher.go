package dispatcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/tempo/backoff"
	"github.com/xraph/tempo/clock"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/store"
)

// fatalAttempt is the attempt number passed to the error backoff for
// misconfiguration, which saturates any capped strategy.
const fatalAttempt = 64

// Outcome reports what one iteration did.
type Outcome int

const (
	// Idle means nothing was due.
	Idle Outcome = iota
	// Dispatched means due events were relocated.
	Dispatched
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o == Dispatched {
		return "dispatched"
	}
	return "idle"
}

// Result describes one committed or idle iteration.
type Result struct {
	Outcome Outcome
	// Events lists the relocated events in queue order.
	Events []event.Event
	// NextDue is the earliest pending due time seen by an idle iteration,
	// or the zero time when the index was empty.
	NextDue time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock sets the clock that decides what is due.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithExtensions sets the extension registry.
func WithExtensions(r *ext.Registry) Option {
	return func(d *Dispatcher) { d.extensions = r }
}

// WithBatchSize sets how many due events one transaction relocates.
func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithMaxIdle caps the sleep between iterations that found nothing due.
func WithMaxIdle(dur time.Duration) Option {
	return func(d *Dispatcher) {
		if dur > 0 {
			d.maxIdle = dur
		}
	}
}

// WithPollRate limits iterations to perSecond. Zero disables the limit.
func WithPollRate(perSecond float64) Option {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			d.limiter = nil
		}
	}
}

// WithConflictBackoff sets the delay strategy after a lost race.
func WithConflictBackoff(s backoff.Strategy) Option {
	return func(d *Dispatcher) { d.conflictBackoff = s }
}

// WithErrorBackoff sets the delay strategy after a store error.
func WithErrorBackoff(s backoff.Strategy) Option {
	return func(d *Dispatcher) { d.errorBackoff = s }
}

// Dispatcher relocates due events from the time index to the work queue.
type Dispatcher struct {
	store      store.Store
	keys       store.Keys
	clock      clock.Clock
	logger     *slog.Logger
	extensions *ext.Registry
	id         id.ID

	batchSize       int
	maxIdle         time.Duration
	limiter         *rate.Limiter
	conflictBackoff backoff.Strategy
	errorBackoff    backoff.Strategy

	// wakeAt is the UnixNano time an idle loop will next query, or zero
	// while an iteration is running.
	wakeAt  atomic.Int64
	wakeCh  chan struct{}
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New creates a Dispatcher over st using keys.
func New(st store.Store, keys store.Keys, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:           st,
		keys:            keys,
		clock:           clock.System{},
		logger:          slog.Default(),
		id:              id.NewDispatcherID(),
		batchSize:       1,
		maxIdle:         250 * time.Millisecond,
		conflictBackoff: backoff.DefaultConflict(),
		errorBackoff:    backoff.DefaultError(),
		wakeCh:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID returns the dispatcher's unique identifier.
func (d *Dispatcher) ID() id.ID { return d.id }

// DispatchOnce runs a single iteration. A lost race is reported as an
// error matching store.ErrConflict and leaves the store unchanged.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (Result, error) {
	var res Result
	now := event.Score(d.clock.Now())

	err := d.store.Watch(ctx, func(tx store.Tx) error {
		res = Result{}

		due, err := tx.RangeByScore(ctx, d.keys.Index, store.UpTo(now, int64(d.batchSize)))
		if err != nil {
			return err
		}
		if len(due) == 0 {
			next, err := tx.RangeByScore(ctx, d.keys.Index, store.From(0, 1))
			if err != nil {
				return err
			}
			if len(next) > 0 {
				res.NextDue = event.TimeOf(next[0].Score)
			}
			return nil
		}

		if err := tx.Commit(ctx, func(b store.Batch) {
			for _, m := range due {
				b.Push(d.keys.Queue, m.ID)
				b.Remove(d.keys.Index, m.ID)
			}
		}); err != nil {
			return err
		}

		res.Outcome = Dispatched
		res.Events = make([]event.Event, len(due))
		for i, m := range due {
			res.Events[i] = event.Event{ID: m.ID, DueAt: event.TimeOf(m.Score)}
		}
		return nil
	}, d.keys.Index)
	if err != nil {
		return Result{}, err
	}

	if res.Outcome == Dispatched {
		for _, ev := range res.Events {
			d.logger.Debug("event dispatched",
				slog.String("dispatcher_id", d.id.String()),
				slog.String("event_id", ev.ID),
			)
		}
		d.extensions.EmitEventsDispatched(ctx, res.Events, d.clock.Now())
	}
	return res, nil
}

// Wake interrupts an idle sleep so the next iteration runs immediately.
// It never blocks.
func (d *Dispatcher) Wake() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

// Notify tells the dispatcher an event became due at dueAt. It wakes an
// idle loop that would otherwise sleep past dueAt.
func (d *Dispatcher) Notify(dueAt time.Time) {
	if at := d.wakeAt.Load(); at == 0 || dueAt.UnixNano() < at {
		d.Wake()
	}
}

// Start launches the dispatch loop. It returns immediately.
func (d *Dispatcher) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}
	d.running = true
	d.stopCh = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	d.logger.Info("dispatcher starting",
		slog.String("dispatcher_id", d.id.String()),
		slog.String("index", d.keys.Index),
		slog.String("queue", d.keys.Queue),
		slog.Int("batch_size", d.batchSize),
	)

	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

// Stop signals the loop to exit after its current iteration and waits for
// it. If ctx expires first the in-flight store call is cancelled.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("dispatcher stopping", slog.String("dispatcher_id", d.id.String()))
	close(d.stopCh)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped gracefully", slog.String("dispatcher_id", d.id.String()))
	case <-ctx.Done():
		d.logger.Warn("dispatcher shutdown timed out, cancelling in-flight call",
			slog.String("dispatcher_id", d.id.String()),
		)
		d.cancel()
		<-done
	}
	d.cancel()
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	var conflicts, failures int
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		if d.limiter != nil && !d.sleep(d.limiter.Reserve().Delay()) {
			return
		}

		res, err := d.DispatchOnce(ctx)
		if err == nil {
			conflicts, failures = 0, 0
			if res.Outcome == Dispatched {
				continue
			}
			if !d.idle(res.NextDue) {
				return
			}
			continue
		}

		var delay time.Duration
		switch store.Classify(err) {
		case store.KindConflict:
			conflicts++
			d.logger.Debug("dispatch conflict, retrying",
				slog.String("dispatcher_id", d.id.String()),
				slog.Int("attempt", conflicts),
			)
			d.extensions.EmitDispatchConflict(ctx, conflicts)
			delay = d.conflictBackoff.Delay(conflicts)
		case store.KindTransient:
			failures++
			d.logger.Warn("dispatch failed, store unavailable",
				slog.String("dispatcher_id", d.id.String()),
				slog.Int("attempt", failures),
				slog.String("error", err.Error()),
			)
			delay = d.errorBackoff.Delay(failures)
		case store.KindFatal:
			d.logger.Error("dispatch failed, store misconfigured",
				slog.String("dispatcher_id", d.id.String()),
				slog.String("error", err.Error()),
			)
			delay = d.errorBackoff.Delay(fatalAttempt)
		default:
			failures++
			d.logger.Error("dispatch failed",
				slog.String("dispatcher_id", d.id.String()),
				slog.Int("attempt", failures),
				slog.String("error", err.Error()),
			)
			delay = d.errorBackoff.Delay(failures)
		}
		if !d.sleep(delay) {
			return
		}
	}
}

// idle sleeps until nextDue, MaxIdle or a wake-up, whichever comes first.
// It returns false when stopped.
func (d *Dispatcher) idle(nextDue time.Time) bool {
	wait := d.maxIdle
	if !nextDue.IsZero() {
		if until := nextDue.Sub(d.clock.Now()); until < wait {
			wait = until
		}
	}
	if wait <= 0 {
		return true
	}

	d.wakeAt.Store(d.clock.Now().Add(wait).UnixNano())
	defer d.wakeAt.Store(0)

	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.wakeCh:
		return true
	case <-d.stopCh:
		return false
	}
}

// sleep waits for dur and returns false when stopped first.
func (d *Dispatcher) sleep(dur time.Duration) bool {
	if dur <= 0 {
		select {
		case <-d.stopCh:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.stopCh:
		return false
	}
}
