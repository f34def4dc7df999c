package tempo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/store/memory"
)

// callLog is shared by runners stopped concurrently.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

// fakeRunner records lifecycle calls.
type fakeRunner struct {
	name     string
	log      *callLog
	startErr error
	stopWait time.Duration
}

func (r *fakeRunner) Start(context.Context) error {
	r.log.add(r.name + ".start")
	return r.startErr
}

func (r *fakeRunner) Stop(ctx context.Context) error {
	select {
	case <-time.After(r.stopWait):
	case <-ctx.Done():
	}
	r.log.add(r.name + ".stop")
	return nil
}

// shutdownCounter implements the extension emitter.
type shutdownCounter struct{ n int }

func (s *shutdownCounter) EmitShutdown(context.Context) { s.n++ }

func TestNew_RequiresStore(t *testing.T) {
	if _, err := tempo.New(); !errors.Is(err, tempo.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := tempo.New(tempo.WithStore(memory.New()), tempo.WithKeyPrefix(""))
	if !errors.Is(err, tempo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	tp, err := tempo.New(
		tempo.WithStore(memory.New()),
		tempo.WithKeyPrefix("billing"),
		tempo.WithHashTag(false),
		tempo.WithBatchSize(10),
		tempo.WithConcurrency(4),
		tempo.WithPopTimeout(time.Second),
		tempo.WithShutdownTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := tp.Config()
	if cfg.KeyPrefix != "billing" || cfg.HashTag || cfg.BatchSize != 10 || cfg.Concurrency != 4 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestStartStop_Lifecycle(t *testing.T) {
	st := memory.New()
	tp, err := tempo.New(tempo.WithStore(st))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log := &callLog{}
	a := &fakeRunner{name: "a", log: log}
	b := &fakeRunner{name: "b", log: log}
	tp.AddRunner(a)
	tp.AddRunner(b)
	sc := &shutdownCounter{}
	tp.SetExtensions(sc)

	ctx := context.Background()
	if err := tp.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tp.Start(ctx); !errors.Is(err, tempo.ErrAlreadyStarted) {
		t.Errorf("second Start: expected ErrAlreadyStarted, got %v", err)
	}
	if err := tp.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := tp.Stop(ctx); !errors.Is(err, tempo.ErrNotStarted) {
		t.Errorf("second Stop: expected ErrNotStarted, got %v", err)
	}

	if calls := log.calls; len(calls) != 4 || calls[0] != "a.start" || calls[1] != "b.start" {
		t.Errorf("calls = %v", calls)
	}
	if sc.n != 1 {
		t.Errorf("shutdown emitted %d times, want 1", sc.n)
	}
	if err := st.Ping(ctx); err == nil {
		t.Error("store should be closed after Stop")
	}
}

func TestStart_RollsBackOnFailure(t *testing.T) {
	tp, _ := tempo.New(tempo.WithStore(memory.New()))

	log := &callLog{}
	tp.AddRunner(&fakeRunner{name: "a", log: log})
	tp.AddRunner(&fakeRunner{name: "b", log: log, startErr: errors.New("no")})

	if err := tp.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	want := []string{"a.start", "b.start", "a.stop"}
	calls := log.calls
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestStop_BoundedByShutdownTimeout(t *testing.T) {
	tp, _ := tempo.New(
		tempo.WithStore(memory.New()),
		tempo.WithShutdownTimeout(50*time.Millisecond),
	)
	tp.AddRunner(&fakeRunner{name: "slow", log: &callLog{}, stopWait: time.Hour})
	_ = tp.Start(context.Background())

	start := time.Now()
	_ = tp.Stop(context.Background())
	if time.Since(start) > time.Second {
		t.Error("Stop ignored the shutdown timeout")
	}
}

func TestStart_FailsWhenStoreClosed(t *testing.T) {
	st := memory.New()
	_ = st.Close()
	tp, _ := tempo.New(tempo.WithStore(st))
	if err := tp.Start(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
