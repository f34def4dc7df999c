package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/clock"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/store"
)

// NotifyFunc is called after an event is written with its due time. The
// engine uses it to wake an in-process dispatcher early.
type NotifyFunc func(dueAt time.Time)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used to compute due times.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithExtensions sets the extension registry notified of scheduling events.
func WithExtensions(r *ext.Registry) Option {
	return func(s *Scheduler) { s.extensions = r }
}

// WithNotify sets a callback invoked after every successful write.
func WithNotify(fn NotifyFunc) Option {
	return func(s *Scheduler) { s.notify = fn }
}

// Scheduler writes events into the time index.
type Scheduler struct {
	store      store.Store
	keys       store.Keys
	clock      clock.Clock
	logger     *slog.Logger
	extensions *ext.Registry
	notify     NotifyFunc
}

// New creates a Scheduler over st using keys.
func New(st store.Store, keys store.Keys, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  st,
		keys:   keys,
		clock:  clock.System{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the keys this scheduler writes to.
func (s *Scheduler) Keys() store.Keys { return s.keys }

// Schedule makes eventID due interval from now. A zero interval makes it
// due immediately. Scheduling an id that is already pending replaces its
// due time.
func (s *Scheduler) Schedule(ctx context.Context, eventID string, category event.Category, interval time.Duration) (*event.Event, error) {
	if interval < 0 {
		return nil, fmt.Errorf("%w: %s: negative interval %s", tempo.ErrInvalidEvent, eventID, interval)
	}
	return s.put(ctx, &event.Event{
		ID:       eventID,
		Category: category,
		DueAt:    s.clock.Now().Add(interval),
	})
}

// ScheduleAt makes eventID due at an absolute time. Times in the past are
// due immediately.
func (s *Scheduler) ScheduleAt(ctx context.Context, eventID string, category event.Category, at time.Time) (*event.Event, error) {
	return s.put(ctx, &event.Event{ID: eventID, Category: category, DueAt: at})
}

// ScheduleNew schedules an event under a freshly generated "evt_" id.
func (s *Scheduler) ScheduleNew(ctx context.Context, category event.Category, interval time.Duration) (*event.Event, error) {
	return s.Schedule(ctx, id.NewEventID().String(), category, interval)
}

// ScheduleCron makes eventID due at the next occurrence of a cron
// expression after now. Call it again from the handler to keep the event
// recurring.
func (s *Scheduler) ScheduleCron(ctx context.Context, eventID string, category event.Category, expr string) (*event.Event, error) {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: cron %q: %w", tempo.ErrInvalidEvent, eventID, expr, err)
	}
	return s.ScheduleAt(ctx, eventID, category, sched.Next(s.clock.Now()))
}

func (s *Scheduler) put(ctx context.Context, ev *event.Event) (*event.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, s.keys.Index, ev.ID, ev.Score()); err != nil {
		return nil, fmt.Errorf("tempo/scheduler: schedule %s: %w", ev.ID, err)
	}

	s.logger.Debug("event scheduled",
		slog.String("event_id", ev.ID),
		slog.Any("category", ev.Category),
		slog.Time("due_at", ev.DueAt),
	)
	s.extensions.EmitEventScheduled(ctx, ev)
	if s.notify != nil {
		s.notify(ev.DueAt)
	}
	return ev, nil
}

// Cancel removes a pending event. It returns tempo.ErrEventNotFound when
// the id is not in the time index, including when it was already
// dispatched.
func (s *Scheduler) Cancel(ctx context.Context, eventID string) error {
	removed, err := s.store.Remove(ctx, s.keys.Index, eventID)
	if err != nil {
		return fmt.Errorf("tempo/scheduler: cancel %s: %w", eventID, err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", tempo.ErrEventNotFound, eventID)
	}

	s.logger.Debug("event cancelled", slog.String("event_id", eventID))
	s.extensions.EmitEventCancelled(ctx, eventID)
	return nil
}

// Lookup returns a pending event. The index stores only id and due time,
// so Category is always zero.
func (s *Scheduler) Lookup(ctx context.Context, eventID string) (*event.Event, error) {
	score, ok, err := s.store.Score(ctx, s.keys.Index, eventID)
	if err != nil {
		return nil, fmt.Errorf("tempo/scheduler: lookup %s: %w", eventID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", tempo.ErrEventNotFound, eventID)
	}
	return &event.Event{ID: eventID, DueAt: event.TimeOf(score)}, nil
}

// Pending lists up to limit pending events, earliest due first. A limit
// of zero lists everything.
func (s *Scheduler) Pending(ctx context.Context, limit int64) ([]event.Event, error) {
	members, err := s.store.RangeByScore(ctx, s.keys.Index, store.ScoreRange{
		Min:   math.Inf(-1),
		Max:   math.Inf(1),
		Count: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("tempo/scheduler: pending: %w", err)
	}
	out := make([]event.Event, len(members))
	for i, m := range members {
		out[i] = event.Event{ID: m.ID, DueAt: event.TimeOf(m.Score)}
	}
	return out, nil
}

// Stats is a point-in-time view of one deployment.
type Stats struct {
	// Pending is the number of events in the time index.
	Pending int64 `json:"pending"`
	// Due is the number of pending events whose due time has passed.
	Due int64 `json:"due"`
	// Ready is the number of events in the work queue.
	Ready int64 `json:"ready"`
}

// Stats reads counters from the store. The three values are read
// separately and may be mutually inconsistent under load.
func (s *Scheduler) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.Pending, err = s.store.IndexLen(ctx, s.keys.Index); err != nil {
		return Stats{}, fmt.Errorf("tempo/scheduler: stats: %w", err)
	}
	if st.Ready, err = s.store.QueueLen(ctx, s.keys.Queue); err != nil {
		return Stats{}, fmt.Errorf("tempo/scheduler: stats: %w", err)
	}
	due, err := s.store.RangeByScore(ctx, s.keys.Index, store.UpTo(event.Score(s.clock.Now()), 0))
	if err != nil {
		return Stats{}, fmt.Errorf("tempo/scheduler: stats: %w", err)
	}
	st.Due = int64(len(due))
	return st, nil
}
