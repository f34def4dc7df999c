package redis

import (
	"context"
	"errors"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/tempo/store"
)

// Watch runs fn between WATCH and EXEC on a dedicated connection. go-redis
// issues UNWATCH when fn returns, so returning without committing simply
// releases the watch. A discarded EXEC surfaces as store.ErrConflict.
func (s *Store) Watch(ctx context.Context, fn func(store.Tx) error, keys ...string) error {
	var fnErr error
	err := s.client.Watch(ctx, func(rtx *goredis.Tx) error {
		fnErr = fn(&tx{rtx: rtx})
		return fnErr
	}, keys...)
	if err != nil && err == fnErr { //nolint:errorlint // identity check: fn errors are already wrapped
		if errors.Is(err, store.ErrConflict) {
			s.logger.Debug("watched key modified before exec", slog.Any("keys", keys))
		}
		return err
	}
	return wrapErr("watch", err)
}

type tx struct {
	rtx *goredis.Tx
}

func (t *tx) RangeByScore(ctx context.Context, indexKey string, r store.ScoreRange) ([]store.Member, error) {
	return rangeByScore(ctx, t.rtx, indexKey, r)
}

// Commit sends the queued operations as MULTI ... EXEC.
func (t *tx) Commit(ctx context.Context, fn func(store.Batch)) error {
	_, err := t.rtx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		fn(&batch{ctx: ctx, p: p})
		return nil
	})
	return wrapErr("exec", err)
}

type batch struct {
	ctx context.Context //nolint:containedctx // scoped to one TxPipelined callback
	p   goredis.Pipeliner
}

func (b *batch) Push(queueKey, value string) { b.p.RPush(b.ctx, queueKey, value) }

func (b *batch) Remove(indexKey, id string) { b.p.ZRem(b.ctx, indexKey, id) }
