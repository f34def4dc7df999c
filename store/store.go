package store

import (
	"context"
	"math"
	"time"
)

// Member is one entry of an ordered index.
type Member struct {
	ID    string
	Score float64
}

// ScoreRange selects index members with Min <= score <= Max, ordered by
// ascending score. Count limits the result; zero means unlimited.
type ScoreRange struct {
	Min   float64
	Max   float64
	Count int64
}

// UpTo returns the closed range [0, maxScore] limited to count members.
func UpTo(maxScore float64, count int64) ScoreRange {
	return ScoreRange{Min: 0, Max: maxScore, Count: count}
}

// From returns the range [minScore, +inf) limited to count members.
func From(minScore float64, count int64) ScoreRange {
	return ScoreRange{Min: minScore, Max: math.Inf(1), Count: count}
}

// Store is the backing-store capability contract. All state shared between
// schedulers, dispatchers and workers lives behind it.
type Store interface {
	// Upsert inserts id into the index or overwrites its score.
	Upsert(ctx context.Context, indexKey, id string, score float64) error

	// Remove deletes id from the index and reports whether it was present.
	Remove(ctx context.Context, indexKey, id string) (bool, error)

	// Score returns the score of id and whether it is present.
	Score(ctx context.Context, indexKey, id string) (float64, bool, error)

	// RangeByScore returns index members within r, lowest score first.
	RangeByScore(ctx context.Context, indexKey string, r ScoreRange) ([]Member, error)

	// IndexLen returns the number of members in the index.
	IndexLen(ctx context.Context, indexKey string) (int64, error)

	// Push appends value to the tail of the queue.
	Push(ctx context.Context, queueKey, value string) error

	// BlockingPop removes and returns the head of the queue, waiting up to
	// timeout for one to arrive. ok is false when the wait expired; no
	// element was delivered to any caller in that case.
	BlockingPop(ctx context.Context, queueKey string, timeout time.Duration) (value string, ok bool, err error)

	// QueueLen returns the number of values waiting in the queue.
	QueueLen(ctx context.Context, queueKey string) (int64, error)

	// Watch runs fn inside an optimistic transaction watching keys. If any
	// watched key is modified by anyone between the watch and the commit
	// issued through Tx.Commit, the commit is discarded and Watch returns
	// an error matching ErrConflict.
	Watch(ctx context.Context, fn func(Tx) error, keys ...string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}

// Tx is the view of the store inside Watch. Reads observe current state;
// writes are only queued through Commit.
type Tx interface {
	RangeByScore(ctx context.Context, indexKey string, r ScoreRange) ([]Member, error)

	// Commit applies every operation queued by fn atomically, or none of
	// them if a watched key changed.
	Commit(ctx context.Context, fn func(Batch)) error
}

// Batch queues writes for Tx.Commit.
type Batch interface {
	Push(queueKey, value string)
	Remove(indexKey, id string)
}
