// Package worker consumes the work queue. Each consumer goroutine issues a
// blocking pop with a bounded timeout, hands the popped event id to a
// Handler through the middleware chain, and loops. A pop that times out is
// an empty cycle. Store errors are logged and backed off but never stop the
// worker; only Stop does.
//
// Delivery is at most once: an event popped by a worker that then crashes
// is lost.
package worker
