package store

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	// ErrConflict means a watched key changed before commit. It is the
	// normal outcome of losing an optimistic race, not a failure.
	ErrConflict = errors.New("tempo/store: watched key modified, transaction discarded")

	// ErrUnavailable wraps connectivity failures and timeouts.
	ErrUnavailable = errors.New("tempo/store: backing store unavailable")

	// ErrMisconfigured wraps failures that retrying cannot fix, such as a
	// key holding the wrong type or rejected credentials.
	ErrMisconfigured = errors.New("tempo/store: backing store misconfigured")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("tempo/store: closed")
)

// Kind classifies store errors for the retry policy of the background loops.
type Kind int

const (
	KindNone Kind = iota
	KindConflict
	KindTransient
	KindFatal
	KindOther
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	default:
		return "other"
	}
}

// Classify maps err onto the error taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrMisconfigured), errors.Is(err, ErrClosed):
		return KindFatal
	case IsTransient(err):
		return KindTransient
	default:
		return KindOther
	}
}

// IsTransient reports whether err looks like a connectivity problem that
// may clear up on its own.
func IsTransient(err error) bool {
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
