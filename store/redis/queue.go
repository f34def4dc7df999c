package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Push runs RPUSH.
func (s *Store) Push(ctx context.Context, queueKey, value string) error {
	return wrapErr("rpush", s.client.RPush(ctx, queueKey, value).Err())
}

// BlockingPop runs BLPOP. A nil reply means the timeout expired.
func (s *Store) BlockingPop(ctx context.Context, queueKey string, timeout time.Duration) (string, bool, error) {
	res, err := s.client.BLPop(ctx, timeout, queueKey).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("blpop", err)
	}
	// Reply is [key, value].
	if len(res) != 2 {
		return "", false, wrapErr("blpop", errors.New("unexpected reply length"))
	}
	return res[1], true, nil
}

// QueueLen runs LLEN.
func (s *Store) QueueLen(ctx context.Context, queueKey string) (int64, error) {
	n, err := s.client.LLen(ctx, queueKey).Result()
	return n, wrapErr("llen", err)
}
