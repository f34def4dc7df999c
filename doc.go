// Package tempo provides distributed delayed-event scheduling on Redis.
//
// Producers schedule events for a future due time. Any number of
// dispatchers, running in any number of processes, promote due events from
// a shared time index into a shared work queue, and workers consume them.
// No locks are taken: every promotion runs inside an optimistic
// WATCH/MULTI/EXEC transaction and a concurrent modification aborts the
// commit, so each event is dispatched at most once.
//
// # Quick Start
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	t, err := tempo.New(tempo.WithStore(redisstore.New(client)))
//	if err != nil { ... }
//	eng, err := engine.Build(t,
//	    engine.WithDispatcher(true),
//	    engine.WithWorker(true),
//	    engine.WithHandler(worker.HandlerFunc(handle)),
//	)
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(ctx)
//
//	_, err = eng.Scheduler().Schedule(ctx, "order-42", 0, 10*time.Second)
//
// # Architecture
//
// Each role lives in its own package: scheduler writes the time index,
// dispatcher relocates due events, worker consumes the queue. They share
// nothing in-process except a stop signal; all shared state lives behind
// the store.Store capability interface. Backends: store/redis and
// store/memory.
package tempo
