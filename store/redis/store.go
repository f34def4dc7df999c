package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/tempo/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements store.Store backed by Redis. It accepts any
// UniversalClient, so a standalone *redis.Client and a *redis.ClusterClient
// both work; against a cluster the index and queue keys must share a hash
// tag (see store.NewKeys).
type Store struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr("ping", s.client.Ping(ctx).Err())
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// misconfigPrefixes are server replies that no amount of retrying fixes.
var misconfigPrefixes = []string{"WRONGTYPE", "NOAUTH", "WRONGPASS", "NOPERM", "CROSSSLOT"}

// wrapErr annotates err with the operation and maps it onto the store
// error taxonomy.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.TxFailedErr):
		return store.ErrConflict
	case errors.Is(err, goredis.ErrClosed):
		return fmt.Errorf("tempo/redis: %s: %w", op, store.ErrClosed)
	}

	var rerr goredis.Error
	if errors.As(err, &rerr) {
		msg := rerr.Error()
		for _, p := range misconfigPrefixes {
			if strings.HasPrefix(msg, p) {
				return fmt.Errorf("tempo/redis: %s: %w: %w", op, store.ErrMisconfigured, err)
			}
		}
	}
	if store.IsTransient(err) {
		return fmt.Errorf("tempo/redis: %s: %w: %w", op, store.ErrUnavailable, err)
	}
	return fmt.Errorf("tempo/redis: %s: %w", op, err)
}
