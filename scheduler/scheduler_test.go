package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/clock"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/ext"
	"github.com/xraph/tempo/scheduler"
	"github.com/xraph/tempo/store"
	"github.com/xraph/tempo/store/memory"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, opts ...scheduler.Option) (*scheduler.Scheduler, *memory.Store, *clock.Fake) {
	t.Helper()
	st := memory.New()
	clk := clock.NewFake(epoch)
	opts = append([]scheduler.Option{scheduler.WithClock(clk)}, opts...)
	return scheduler.New(st, store.NewKeys("test", true), opts...), st, clk
}

// recorder captures scheduling hooks.
type recorder struct {
	scheduled []string
	cancelled []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) OnEventScheduled(_ context.Context, ev *event.Event) error {
	r.scheduled = append(r.scheduled, ev.ID)
	return nil
}

func (r *recorder) OnEventCancelled(_ context.Context, eventID string) error {
	r.cancelled = append(r.cancelled, eventID)
	return nil
}

// failingStore fails every index write.
type failingStore struct {
	*memory.Store
	err error
}

func (f *failingStore) Upsert(context.Context, string, string, float64) error { return f.err }

// ──────────────────────────────────────────────────
// Schedule
// ──────────────────────────────────────────────────

func TestSchedule_WritesDueTime(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	ctx := context.Background()

	ev, err := s.Schedule(ctx, "e1", 3, 5*time.Second)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if !ev.DueAt.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("DueAt = %v, want now+5s", ev.DueAt)
	}
	if ev.Category != 3 {
		t.Errorf("Category = %d, want 3", ev.Category)
	}

	score, ok, err := st.Score(ctx, s.Keys().Index, "e1")
	if err != nil || !ok {
		t.Fatalf("Score: ok=%v err=%v", ok, err)
	}
	if want := event.Score(epoch.Add(5 * time.Second)); score != want {
		t.Errorf("score = %v, want %v", score, want)
	}
}

func TestSchedule_ZeroIntervalIsDueNow(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := s.Schedule(ctx, "now", 0, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	due, err := st.RangeByScore(ctx, s.Keys().Index, store.UpTo(event.Score(epoch), 0))
	if err != nil {
		t.Fatalf("RangeByScore: %v", err)
	}
	if len(due) != 1 || due[0].ID != "now" {
		t.Errorf("expected [now] due, got %v", due)
	}
}

func TestSchedule_LastWriteWins(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := s.Schedule(ctx, "e1", 0, 10*time.Second); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, err := s.Schedule(ctx, "e1", 0, 2*time.Second); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	n, _ := st.IndexLen(ctx, s.Keys().Index)
	if n != 1 {
		t.Fatalf("expected a single entry, got %d", n)
	}
	ev, err := s.Lookup(ctx, "e1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ev.DueAt.Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("DueAt = %v, want the second write", ev.DueAt)
	}
}

func TestSchedule_RejectsInvalid(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := s.Schedule(ctx, "", 0, time.Second); !errors.Is(err, tempo.ErrInvalidEvent) {
		t.Errorf("empty id: expected ErrInvalidEvent, got %v", err)
	}
	if _, err := s.Schedule(ctx, "e1", 0, -time.Second); !errors.Is(err, tempo.ErrInvalidEvent) {
		t.Errorf("negative interval: expected ErrInvalidEvent, got %v", err)
	}
	if n, _ := st.IndexLen(ctx, s.Keys().Index); n != 0 {
		t.Errorf("rejected events must not be written, index has %d", n)
	}
}

func TestSchedule_ReturnsStoreError(t *testing.T) {
	fs := &failingStore{Store: memory.New(), err: store.ErrUnavailable}
	s := scheduler.New(fs, store.NewKeys("test", true))

	_, err := s.Schedule(context.Background(), "e1", 0, time.Second)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected wrapped ErrUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "e1") {
		t.Errorf("error should name the event: %v", err)
	}
}

func TestScheduleAt_PastIsDue(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	ctx := context.Background()

	if _, err := s.ScheduleAt(ctx, "late", 0, epoch.Add(-time.Hour)); err != nil {
		t.Fatalf("ScheduleAt: %v", err)
	}
	due, _ := st.RangeByScore(ctx, s.Keys().Index, store.UpTo(event.Score(epoch), 0))
	if len(due) != 1 {
		t.Errorf("expected past event to be due, got %v", due)
	}
}

func TestScheduleNew_GeneratesEventID(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	ev, err := s.ScheduleNew(context.Background(), 1, time.Minute)
	if err != nil {
		t.Fatalf("ScheduleNew: %v", err)
	}
	if !strings.HasPrefix(ev.ID, "evt_") {
		t.Errorf("expected evt_ id, got %q", ev.ID)
	}
}

func TestScheduleCron_NextOccurrence(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	ev, err := s.ScheduleCron(context.Background(), "hourly", 0, "0 * * * *")
	if err != nil {
		t.Fatalf("ScheduleCron: %v", err)
	}
	if want := epoch.Add(time.Hour); !ev.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", ev.DueAt, want)
	}

	if _, err := s.ScheduleCron(context.Background(), "bad", 0, "not-a-cron"); !errors.Is(err, tempo.ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent for bad expression, got %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	now := time.Now().UTC()
	for _, expr := range []string{"@every 30s", "*/5 * * * *", "@daily"} {
		sched, err := scheduler.ParseSchedule(expr)
		if err != nil {
			t.Fatalf("ParseSchedule(%q): %v", expr, err)
		}
		if next := sched.Next(now); !next.After(now) {
			t.Errorf("%q: Next(%v) = %v, expected future time", expr, now, next)
		}
	}
	if _, err := scheduler.ParseSchedule("* * * * * *"); err == nil {
		t.Error("expected error for six-field expression")
	}
}

// ──────────────────────────────────────────────────
// Cancel / Lookup / Pending / Stats
// ──────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	rec := &recorder{}
	reg := ext.NewRegistry(slog.Default())
	reg.Register(rec)
	s, _, _ := newTestScheduler(t, scheduler.WithExtensions(reg))
	ctx := context.Background()

	if _, err := s.Schedule(ctx, "e1", 0, time.Minute); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := s.Cancel(ctx, "e1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := s.Lookup(ctx, "e1"); !errors.Is(err, tempo.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound after cancel, got %v", err)
	}
	if err := s.Cancel(ctx, "e1"); !errors.Is(err, tempo.ErrEventNotFound) {
		t.Errorf("second cancel: expected ErrEventNotFound, got %v", err)
	}

	if len(rec.scheduled) != 1 || len(rec.cancelled) != 1 {
		t.Errorf("hooks: scheduled=%v cancelled=%v", rec.scheduled, rec.cancelled)
	}
}

func TestPending_OrderedByDueTime(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	_, _ = s.Schedule(ctx, "c", 0, 3*time.Second)
	_, _ = s.Schedule(ctx, "a", 0, 1*time.Second)
	_, _ = s.Schedule(ctx, "b", 0, 2*time.Second)

	all, err := s.Pending(ctx, 0)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	var ids []string
	for _, ev := range all {
		ids = append(ids, ev.ID)
	}
	if strings.Join(ids, ",") != "a,b,c" {
		t.Errorf("Pending order = %v, want a,b,c", ids)
	}

	first, _ := s.Pending(ctx, 2)
	if len(first) != 2 {
		t.Errorf("limit 2: got %d", len(first))
	}
}

func TestStats(t *testing.T) {
	s, st, clk := newTestScheduler(t)
	ctx := context.Background()

	_, _ = s.Schedule(ctx, "soon", 0, time.Second)
	_, _ = s.Schedule(ctx, "later", 0, time.Hour)
	_ = st.Push(ctx, s.Keys().Queue, "ready-1")
	clk.Advance(2 * time.Second)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := scheduler.Stats{Pending: 2, Due: 1, Ready: 1}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestNotify_ReceivesDueTime(t *testing.T) {
	var got []time.Time
	s, _, _ := newTestScheduler(t, scheduler.WithNotify(func(at time.Time) { got = append(got, at) }))

	_, _ = s.Schedule(context.Background(), "e1", 0, 4*time.Second)
	_, _ = s.Schedule(context.Background(), "", 0, time.Second)

	if len(got) != 1 || !got[0].Equal(epoch.Add(4*time.Second)) {
		t.Errorf("notify calls = %v, want one at now+4s", got)
	}
}
