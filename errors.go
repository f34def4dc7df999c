package tempo

import "errors"

var (
	// Configuration errors.
	ErrNoStore       = errors.New("tempo: no store configured")
	ErrInvalidConfig = errors.New("tempo: invalid configuration")

	// Event errors.
	ErrInvalidEvent  = errors.New("tempo: invalid event")
	ErrEventNotFound = errors.New("tempo: event not found")

	// Lifecycle errors.
	ErrAlreadyStarted = errors.New("tempo: already started")
	ErrNotStarted     = errors.New("tempo: not started")
)
