// Package errs defines the discriminated error kinds a Task and Chunk
// Store can fail with, per the error handling design: a caller switches
// on Kind() rather than parsing error strings, while the wrapped cause
// (via github.com/pkg/errors) stays available through errors.Unwrap.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the class of failure a caller must react to.
type Kind int

const (
	// KindGeneric covers any unexpected condition not otherwise classified.
	KindGeneric Kind = iota
	// KindNetwork is a transport-level failure, retryable up to MaxRetries.
	KindNetwork
	// KindHTTP is a non-2xx, non-206 response from the origin server.
	KindHTTP
	// KindUnsupportedServer means a required capability (byte ranges,
	// Content-Range) was not provided by the origin. Terminal.
	KindUnsupportedServer
	// KindAssembly is a missing chunk or size mismatch at final assembly.
	// Terminal; the store entries for the task are purged.
	KindAssembly
	// KindQuota is persistent storage exhaustion. Terminal.
	KindQuota
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "Network"
	case KindHTTP:
		return "Http"
	case KindUnsupportedServer:
		return "UnsupportedServer"
	case KindAssembly:
		return "Assembly"
	case KindQuota:
		return "Quota"
	default:
		return "Generic"
	}
}

// Error is the concrete error type carried through the task and store;
// it always knows its Kind even after being wrapped with additional
// context via errors.Wrap.
type Error struct {
	kind   Kind
	status int    // HTTP status, meaningful only when kind == KindHTTP
	cause  error
}

func (e *Error) Error() string {
	if e.kind == KindHTTP {
		return fmt.Sprintf("http %d: %v", e.status, e.cause)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.kind, e.cause)
	}
	return e.kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the discriminated failure class.
func (e *Error) Kind() Kind { return e.kind }

// Status returns the HTTP status code for a KindHTTP error, or 0 otherwise.
func (e *Error) Status() int { return e.status }

// Network wraps cause as a retryable transport failure.
func Network(cause error) *Error {
	return &Error{kind: KindNetwork, cause: errors.WithStack(cause)}
}

// HTTP builds a terminal-or-retryable error from a non-2xx/206 response.
// Retryability (status >= 500) is a decision made by the caller, not
// encoded here.
func HTTP(status int, text string) *Error {
	return &Error{kind: KindHTTP, status: status, cause: errors.Errorf("%s", text)}
}

// UnsupportedServer reports a missing required capability.
func UnsupportedServer(reason string) *Error {
	return &Error{kind: KindUnsupportedServer, cause: errors.New(reason)}
}

// Assembly reports a final-assembly failure (missing chunk or size mismatch).
func Assembly(reason string) *Error {
	return &Error{kind: KindAssembly, cause: errors.New(reason)}
}

// Quota reports persistent storage exhaustion.
func Quota(cause error) *Error {
	return &Error{kind: KindQuota, cause: errors.WithStack(cause)}
}

// Storage wraps any other backend failure as a generic error, per the
// Chunk Store contract (quota exhaustion gets its own kind; everything
// else is StorageFailure).
func Storage(cause error) *Error {
	return &Error{kind: KindGeneric, cause: errors.Wrap(cause, "storage failure")}
}

// Generic wraps an unexpected condition.
func Generic(cause error) *Error {
	return &Error{kind: KindGeneric, cause: errors.WithStack(cause)}
}

// Retryable reports whether e should trigger the task's internal
// retry/backoff loop rather than surfacing immediately.
func Retryable(e *Error) bool {
	if e == nil {
		return false
	}
	switch e.kind {
	case KindNetwork:
		return true
	case KindHTTP:
		return e.status >= 500
	default:
		return false
	}
}
