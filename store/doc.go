// Package store defines the backing-store capability contract.
//
// Two logical structures are shared by every process of a deployment:
//
//   - the time index, a sorted set mapping event ids to due-time scores;
//   - the work queue, a list of event ids ready for workers.
//
// The dispatcher moves ids from the first to the second inside Watch, an
// optimistic transaction: it watches the index key, reads the due range,
// and commits RPUSH+ZREM. A concurrent write to the index makes the commit
// fail with ErrConflict and nothing is applied.
//
// # Available Backends
//
//   - store/redis: Redis or Redis Cluster via go-redis
//   - store/memory: in-process store for development and testing
//
// # Usage
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	keys := store.NewKeys("scheduler", true)
//
// # Errors
//
// Backends wrap failures so [Classify] can sort them into conflict,
// transient, fatal and other. Background loops retry everything except
// conflicts with backoff; conflicts retry almost immediately.
package store
