// Package engine wires the tempo components together on top of a
// *tempo.Tempo: the scheduler, an optional dispatcher, an optional worker,
// the extension registry and the handler middleware chain.
//
// The engine package exists to break an import cycle: the root tempo
// package defines the sentinel errors and Config that every component
// imports, so it cannot import the components back.
//
// # Building an Engine
//
//	t, err := tempo.New(
//	    tempo.WithStore(redisstore.New(client)),
//	    tempo.WithKeyPrefix("billing"),
//	)
//
//	eng, err := engine.Build(t,
//	    engine.WithDispatcher(true),
//	    engine.WithWorker(true),
//	    engine.WithHandler(worker.HandlerFunc(handle)),
//	    engine.WithExtension(myExtension),
//	)
//
// # Scheduling
//
//	eng.Schedule(ctx, "invoice-1042", 7, 30*time.Second)
//	eng.Scheduler().ScheduleCron(ctx, "nightly", 0, "0 2 * * *")
//
// A process may run any combination of roles. Scheduling is always
// available; the dispatcher and worker only run when enabled.
//
// # Options
//
//   - [WithDispatcher] / [WithWorker]: enable background roles
//   - [WithHandler]: set the worker handler
//   - [WithExtension]: register a lifecycle extension
//   - [WithMiddleware]: add a middleware to the handler chain
//   - [WithHandlerTimeout]: bound each handler call
//   - [WithClock]: drive due times from a custom clock
//   - [WithTracerProvider] / [WithMeterProvider]: OpenTelemetry providers
package engine
