package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/event"
	"github.com/xraph/tempo/store"
)

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func runApp(t *testing.T, mr *miniredis.Miniredis, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	argv := []string{
		"tempo",
		"--host", mr.Host(),
		"--port", mr.Port(),
		"--name=",
		"--log-level", "error",
	}
	argv = append(argv, args...)
	err := app.Run(argv)
	return out.String(), err
}

// ──────────────────────────────────────────────────
// parseLevel
// ──────────────────────────────────────────────────

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

// ──────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────

func TestSchedule_In(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := runApp(t, mr, "schedule", "--in", "1h", "--category", "7", "invoice-1042")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	var ev event.Event
	if err := json.Unmarshal([]byte(out), &ev); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if ev.ID != "invoice-1042" {
		t.Errorf("ID = %q, want invoice-1042", ev.ID)
	}
	if ev.Category != 7 {
		t.Errorf("Category = %d, want 7", ev.Category)
	}
	if d := time.Until(ev.DueAt); d < 59*time.Minute || d > time.Hour {
		t.Errorf("DueAt %v is not about an hour away", ev.DueAt)
	}

	keys := store.NewKeys(tempo.DefaultConfig().KeyPrefix, true)
	members, err := mr.ZMembers(keys.Index)
	if err != nil {
		t.Fatalf("ZMembers: %v", err)
	}
	if len(members) != 1 || members[0] != "invoice-1042" {
		t.Errorf("index members = %v", members)
	}
}

func TestSchedule_At(t *testing.T) {
	mr := miniredis.RunT(t)
	at := "2030-01-02T03:04:05Z"

	out, err := runApp(t, mr, "schedule", "--at", at, "report")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	var ev event.Event
	if err := json.Unmarshal([]byte(out), &ev); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	want, _ := time.Parse(time.RFC3339, at)
	if !ev.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", ev.DueAt, want)
	}
}

func TestSchedule_BadAt(t *testing.T) {
	mr := miniredis.RunT(t)
	if _, err := runApp(t, mr, "schedule", "--at", "tomorrow", "report"); err == nil {
		t.Fatal("expected error for malformed --at")
	}
}

func TestSchedule_BadCron(t *testing.T) {
	mr := miniredis.RunT(t)
	if _, err := runApp(t, mr, "schedule", "--cron", "not a cron", "nightly"); err == nil {
		t.Fatal("expected error for malformed --cron")
	}
}

func TestCancel(t *testing.T) {
	mr := miniredis.RunT(t)

	if _, err := runApp(t, mr, "schedule", "--in", "1h", "e1"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := runApp(t, mr, "cancel", "e1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := runApp(t, mr, "cancel", "e1")
	if !errors.Is(err, tempo.ErrEventNotFound) {
		t.Fatalf("second cancel = %v, want ErrEventNotFound", err)
	}
}

func TestStats(t *testing.T) {
	mr := miniredis.RunT(t)
	keys := store.NewKeys(tempo.DefaultConfig().KeyPrefix, true)

	if _, err := runApp(t, mr, "schedule", "--in", "1h", "later"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := runApp(t, mr, "schedule", "--in", "0s", "now"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := mr.RPush(keys.Queue, "ready-1"); err != nil {
		t.Fatalf("RPush: %v", err)
	}

	out, err := runApp(t, mr, "stats", "--list", "5")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{
		"pending 2",
		"due     1",
		"ready   1",
		keys.Index,
		"\tnow\n",
		"\tlater\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "\tnow\n") > strings.Index(out, "\tlater\n") {
		t.Errorf("pending list not in due order:\n%s", out)
	}
}

func TestPlainKeys(t *testing.T) {
	mr := miniredis.RunT(t)

	if _, err := runApp(t, mr, "--prefix", "billing", "--no-hash-tag", "schedule", "--in", "1m", "e1"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if !mr.Exists("billingZset") {
		t.Errorf("expected key billingZset, have %v", mr.Keys())
	}
}

func TestMissingAuthEnv(t *testing.T) {
	mr := miniredis.RunT(t)

	_, err := runApp(t, mr, "--auth-env", "TEMPO_TEST_MISSING_PASSWORD", "stats")
	if err == nil || !strings.Contains(err.Error(), "TEMPO_TEST_MISSING_PASSWORD") {
		t.Fatalf("err = %v, want missing auth env error", err)
	}
}
