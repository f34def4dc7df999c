package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/event"
)

func TestScore_RoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 15, 250*int(time.Millisecond), time.UTC)
	got := event.TimeOf(event.Score(at))
	if !got.Equal(at) {
		t.Errorf("TimeOf(Score(%v)) = %v", at, got)
	}
}

func TestScore_WholeSeconds(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if got := event.Score(at); got != 1700000000 {
		t.Errorf("Score = %v, want 1700000000", got)
	}
}

func TestScore_Ordering(t *testing.T) {
	now := time.Now()
	if event.Score(now) >= event.Score(now.Add(time.Millisecond)) {
		t.Error("expected later time to have a larger score")
	}
}

func TestScore_ClampsPreEpoch(t *testing.T) {
	if got := event.Score(time.Unix(-10, 0)); got != 0 {
		t.Errorf("Score(pre-epoch) = %v, want 0", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      event.Event
		wantErr bool
	}{
		{"ok", event.Event{ID: "e1", DueAt: time.Now()}, false},
		{"empty id", event.Event{DueAt: time.Now()}, true},
		{"zero due", event.Event{ID: "e1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr && !errors.Is(err, tempo.ErrInvalidEvent) {
				t.Errorf("expected ErrInvalidEvent, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
