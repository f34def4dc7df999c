// Package observability provides an OpenTelemetry metrics extension for
// tempo. MetricsExtension implements the ext lifecycle hooks and records
// system-wide counters for scheduling, dispatch, conflicts and handler
// outcomes, plus a histogram of dispatch lag.
//
// For per-call tracing and metrics around handlers, see the middleware
// package: middleware.Tracing() and middleware.Metrics().
package observability
