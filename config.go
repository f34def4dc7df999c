package tempo

import (
	"fmt"
	"time"
)

// Config holds configuration shared by the scheduler, dispatcher and worker
// of one logical deployment.
type Config struct {
	// KeyPrefix names the deployment. The time index and work queue keys
	// are derived from it.
	KeyPrefix string

	// HashTag wraps KeyPrefix in a Redis Cluster hash tag so the index and
	// queue keys resolve to the same slot.
	HashTag bool

	// BatchSize is the maximum number of due events relocated per
	// dispatcher transaction.
	BatchSize int

	// MaxIdle caps how long an idle dispatcher sleeps before querying
	// the time index again.
	MaxIdle time.Duration

	// PollRate caps dispatcher store round-trips per second. Zero
	// disables the limit.
	PollRate float64

	// PopTimeout bounds each blocking pop issued by a worker.
	PopTimeout time.Duration

	// Concurrency is the number of consumer goroutines per worker.
	Concurrency int

	// ShutdownTimeout is the maximum time Stop waits for loops to drain
	// before cancelling in-flight store calls.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:       "scheduler",
		HashTag:         true,
		BatchSize:       1,
		MaxIdle:         250 * time.Millisecond,
		PopTimeout:      2 * time.Second,
		Concurrency:     1,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate reports configuration that can never work. These are the only
// errors treated as fatal; everything the store reports at runtime is
// retried.
func (c Config) Validate() error {
	switch {
	case c.KeyPrefix == "":
		return fmt.Errorf("%w: empty key prefix", ErrInvalidConfig)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size %d < 1", ErrInvalidConfig, c.BatchSize)
	case c.MaxIdle <= 0:
		return fmt.Errorf("%w: max idle must be positive", ErrInvalidConfig)
	case c.PollRate < 0:
		return fmt.Errorf("%w: negative poll rate", ErrInvalidConfig)
	case c.PopTimeout <= 0:
		// A zero BLPOP timeout blocks forever and would make Stop hang.
		return fmt.Errorf("%w: pop timeout must be positive", ErrInvalidConfig)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency %d < 1", ErrInvalidConfig, c.Concurrency)
	}
	return nil
}
