// Package redis implements store.Store on Redis. The time index is a
// Sorted Set scored by due time, the work queue is a List, and relocation
// runs as WATCH index / ZRANGEBYSCORE / MULTI RPUSH ZREM EXEC.
//
// The caller owns the client lifecycle; Close never closes it:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
//
// For Redis Cluster pass a *redis.ClusterClient and derive keys with a
// hash tag so the watched index and the queue hash to one slot.
package redis
