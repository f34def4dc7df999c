package redis

import (
	"context"
	"errors"
	"math"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/tempo/store"
)

// Upsert runs ZADD, inserting id or overwriting its score.
func (s *Store) Upsert(ctx context.Context, indexKey, id string, score float64) error {
	err := s.client.ZAdd(ctx, indexKey, goredis.Z{Score: score, Member: id}).Err()
	return wrapErr("zadd", err)
}

// Remove runs ZREM.
func (s *Store) Remove(ctx context.Context, indexKey, id string) (bool, error) {
	n, err := s.client.ZRem(ctx, indexKey, id).Result()
	if err != nil {
		return false, wrapErr("zrem", err)
	}
	return n > 0, nil
}

// Score runs ZSCORE.
func (s *Store) Score(ctx context.Context, indexKey, id string) (float64, bool, error) {
	score, err := s.client.ZScore(ctx, indexKey, id).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapErr("zscore", err)
	}
	return score, true, nil
}

// RangeByScore runs ZRANGEBYSCORE ... WITHSCORES.
func (s *Store) RangeByScore(ctx context.Context, indexKey string, r store.ScoreRange) ([]store.Member, error) {
	return rangeByScore(ctx, s.client, indexKey, r)
}

// IndexLen runs ZCARD.
func (s *Store) IndexLen(ctx context.Context, indexKey string) (int64, error) {
	n, err := s.client.ZCard(ctx, indexKey).Result()
	return n, wrapErr("zcard", err)
}

// rangeByScore is shared by the store and by transactions, which must
// issue the read on the connection holding the WATCH.
func rangeByScore(ctx context.Context, c goredis.Cmdable, key string, r store.ScoreRange) ([]store.Member, error) {
	zs, err := c.ZRangeByScoreWithScores(ctx, key, &goredis.ZRangeBy{
		Min:   formatScore(r.Min),
		Max:   formatScore(r.Max),
		Count: r.Count,
	}).Result()
	if err != nil {
		return nil, wrapErr("zrangebyscore", err)
	}

	members := make([]store.Member, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		members = append(members, store.Member{ID: id, Score: z.Score})
	}
	return members, nil
}

func formatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
