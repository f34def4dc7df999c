// Package event defines the scheduled event and the delivery handed to
// worker handlers, plus the conversion between due times and the numeric
// scores stored in the time index.
package event

import (
	"fmt"
	"math"
	"time"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/id"
)

// Category is an opaque marker carried alongside an event. It is recorded
// and reported but never interpreted.
type Category uint32

// Event is a unit of deferred work. It lives in exactly one of the time
// index or the work queue and stops being tracked once a worker pops it.
type Event struct {
	ID       string    `json:"id"`
	Category Category  `json:"category"`
	DueAt    time.Time `json:"due_at"`
}

// Score returns the index score for e.DueAt.
func (e *Event) Score() float64 { return Score(e.DueAt) }

// Validate checks the only two fields the scheduler cares about.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: empty id", tempo.ErrInvalidEvent)
	}
	if e.DueAt.IsZero() {
		return fmt.Errorf("%w: %s: zero due time", tempo.ErrInvalidEvent, e.ID)
	}
	return nil
}

// Delivery is what a worker hands to its handler after popping an event
// from the work queue.
type Delivery struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	WorkerID   id.ID     `json:"worker_id"`
}

// Score converts t to Unix seconds with millisecond resolution. Whole
// seconds match scores written by producers that use time(2). Times before
// the epoch clamp to zero, the lower bound of every dispatch query.
func Score(t time.Time) float64 {
	ms := t.UnixMilli()
	if ms < 0 {
		return 0
	}
	return float64(ms) / 1000
}

// TimeOf is the inverse of Score.
func TimeOf(score float64) time.Time {
	return time.UnixMilli(int64(math.Round(score * 1000))).UTC()
}
