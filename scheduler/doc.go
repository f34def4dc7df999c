// Package scheduler is the producer-side API of tempo. It writes events
// into the time index of a store, scored by their due time, and answers
// questions about what is pending.
//
// Scheduling the same id again before it is due moves it: the index
// holds one score per id and the last write wins.
//
//	s := scheduler.New(st, store.NewKeys("billing", true))
//	ev, err := s.Schedule(ctx, "invoice-1042", 7, 30*time.Second)
//
// The scheduler never touches the work queue; a dispatcher relocates
// events once they are due.
package scheduler
