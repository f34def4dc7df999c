// Package memory implements store.Store in process memory. Watch tracks
// per-key versions the way Redis WATCH does, so optimistic-concurrency
// behaviour (including conflicts) matches the Redis backend. Intended for
// unit tests, development, and single-process deployments.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xraph/tempo/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

var errCommitted = errors.New("tempo/memory: transaction already committed")

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access.
type Store struct {
	mu sync.Mutex

	indexes  map[string]map[string]float64
	queues   map[string][]string
	versions map[string]uint64

	// waiters holds one channel per queue key, closed on the next push.
	waiters map[string]chan struct{}
	closed  bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		indexes:  make(map[string]map[string]float64),
		queues:   make(map[string][]string),
		versions: make(map[string]uint64),
		waiters:  make(map[string]chan struct{}),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle: Ping / Close
// ──────────────────────────────────────────────────

// Ping reports ErrClosed after Close.
func (m *Store) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	return nil
}

// Close wakes every blocked pop and makes further calls fail with ErrClosed.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for k, ch := range m.waiters {
		close(ch)
		delete(m.waiters, k)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Time index
// ──────────────────────────────────────────────────

// Upsert inserts or rescores id. Like ZADD, rewriting an unchanged score
// does not count as a modification for watchers.
func (m *Store) Upsert(_ context.Context, indexKey, id string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	m.upsertLocked(indexKey, id, score)
	return nil
}

// Remove deletes id from the index.
func (m *Store) Remove(_ context.Context, indexKey, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, store.ErrClosed
	}
	return m.removeLocked(indexKey, id), nil
}

// Score returns the score of id.
func (m *Store) Score(_ context.Context, indexKey, id string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, false, store.ErrClosed
	}
	score, ok := m.indexes[indexKey][id]
	return score, ok, nil
}

// RangeByScore returns members within r ordered by score, then id.
func (m *Store) RangeByScore(_ context.Context, indexKey string, r store.ScoreRange) ([]store.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, store.ErrClosed
	}
	return m.rangeLocked(indexKey, r), nil
}

// IndexLen returns the number of members in the index.
func (m *Store) IndexLen(_ context.Context, indexKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, store.ErrClosed
	}
	return int64(len(m.indexes[indexKey])), nil
}

// ──────────────────────────────────────────────────
// Work queue
// ──────────────────────────────────────────────────

// Push appends value to the queue and wakes blocked pops.
func (m *Store) Push(_ context.Context, queueKey, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	m.pushLocked(queueKey, value)
	return nil
}

// BlockingPop removes the head of the queue, waiting up to timeout. A
// non-positive timeout waits until a value arrives or ctx is done.
func (m *Store) BlockingPop(ctx context.Context, queueKey string, timeout time.Duration) (string, bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return "", false, store.ErrClosed
		}
		if q := m.queues[queueKey]; len(q) > 0 {
			v := q[0]
			if len(q) == 1 {
				delete(m.queues, queueKey)
			} else {
				m.queues[queueKey] = q[1:]
			}
			m.versions[queueKey]++
			m.mu.Unlock()
			return v, true, nil
		}
		wait := m.waiters[queueKey]
		if wait == nil {
			wait = make(chan struct{})
			m.waiters[queueKey] = wait
		}
		m.mu.Unlock()

		select {
		case <-wait:
		case <-expired:
			return "", false, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

// QueueLen returns the number of values waiting in the queue.
func (m *Store) QueueLen(_ context.Context, queueKey string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, store.ErrClosed
	}
	return int64(len(m.queues[queueKey])), nil
}

// Values returns a copy of the queue contents, head first.
func (m *Store) Values(queueKey string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queues[queueKey]...)
}

// ──────────────────────────────────────────────────
// Optimistic transactions
// ──────────────────────────────────────────────────

// Watch snapshots the versions of keys and runs fn. Tx.Commit applies its
// batch only if none of the watched keys changed since the snapshot.
func (m *Store) Watch(ctx context.Context, fn func(store.Tx) error, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return store.ErrClosed
	}
	watched := make(map[string]uint64, len(keys))
	for _, k := range keys {
		watched[k] = m.versions[k]
	}
	m.mu.Unlock()

	return fn(&tx{m: m, watched: watched})
}

type tx struct {
	m         *Store
	watched   map[string]uint64
	committed bool
}

func (t *tx) RangeByScore(ctx context.Context, indexKey string, r store.ScoreRange) ([]store.Member, error) {
	return t.m.RangeByScore(ctx, indexKey, r)
}

func (t *tx) Commit(ctx context.Context, fn func(store.Batch)) error {
	if t.committed {
		return errCommitted
	}
	t.committed = true
	if err := ctx.Err(); err != nil {
		return err
	}

	b := &batch{}
	fn(b)

	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	for k, v := range t.watched {
		if m.versions[k] != v {
			return store.ErrConflict
		}
	}
	for _, op := range b.ops {
		if op.push {
			m.pushLocked(op.key, op.value)
		} else {
			m.removeLocked(op.key, op.value)
		}
	}
	return nil
}

type batchOp struct {
	push  bool
	key   string
	value string
}

type batch struct {
	ops []batchOp
}

func (b *batch) Push(queueKey, value string) {
	b.ops = append(b.ops, batchOp{push: true, key: queueKey, value: value})
}

func (b *batch) Remove(indexKey, id string) {
	b.ops = append(b.ops, batchOp{key: indexKey, value: id})
}

// ── helpers (caller holds m.mu) ──

func (m *Store) upsertLocked(indexKey, id string, score float64) {
	idx := m.indexes[indexKey]
	if idx == nil {
		idx = make(map[string]float64)
		m.indexes[indexKey] = idx
	}
	if old, ok := idx[id]; ok && old == score {
		return
	}
	idx[id] = score
	m.versions[indexKey]++
}

func (m *Store) removeLocked(indexKey, id string) bool {
	idx := m.indexes[indexKey]
	if _, ok := idx[id]; !ok {
		return false
	}
	delete(idx, id)
	if len(idx) == 0 {
		delete(m.indexes, indexKey)
	}
	m.versions[indexKey]++
	return true
}

func (m *Store) pushLocked(queueKey, value string) {
	m.queues[queueKey] = append(m.queues[queueKey], value)
	m.versions[queueKey]++
	if ch := m.waiters[queueKey]; ch != nil {
		close(ch)
		delete(m.waiters, queueKey)
	}
}

func (m *Store) rangeLocked(indexKey string, r store.ScoreRange) []store.Member {
	var out []store.Member
	for id, score := range m.indexes[indexKey] {
		if score >= r.Min && score <= r.Max {
			out = append(out, store.Member{ID: id, Score: score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if r.Count > 0 && int64(len(out)) > r.Count {
		out = out[:r.Count]
	}
	return out
}
