// Package dispatcher moves due events from the time index to the work
// queue.
//
// Each iteration watches the index key, reads the members scored at or
// before now and, inside the same optimistic transaction, pushes them onto
// the queue and removes them from the index. When another dispatcher
// commits first the transaction is discarded and the iteration is retried
// after a short jittered backoff. No locks are taken, and any number of
// dispatchers may run against the same keys: each due event is relocated
// exactly once.
//
// The loop never exits on store errors. Conflicts are logged at Debug,
// connectivity errors at Warn, everything else at Error, and all of them
// are retried with backoff.
package dispatcher
