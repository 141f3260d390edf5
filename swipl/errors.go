package swipl

import (
	"errors"
	"fmt"

	"github.com/prologkit/swiplmqi/term"
)

// ErrThreadClosed is returned when an operation is attempted on a
// stopped Thread.
var ErrThreadClosed = errors.New("prolog thread is closed")

// ExceptionKind classifies an exception reply from the engine.
type ExceptionKind int

const (
	// ExceptionGeneric covers any exception the engine raised that is
	// not one of the protocol's own kinds, e.g. a syntax error in the
	// goal text.
	ExceptionGeneric ExceptionKind = iota

	// ExceptionConnectionFailed means the engine-side thread or process
	// is gone. The owning Server is marked failed and its remaining
	// threads are presumed unusable.
	ExceptionConnectionFailed

	// ExceptionTimeout means the engine-enforced time budget for the
	// goal was exceeded. The thread stays usable.
	ExceptionTimeout

	// ExceptionCancelled means the goal was interrupted by
	// CancelQueryAsync.
	ExceptionCancelled

	// ExceptionNoQuery means result retrieval or cancellation was
	// attempted with no query running and no results pending.
	ExceptionNoQuery

	// ExceptionResultNotAvailable means a bounded result poll found no
	// answer in time. Unlike every other kind it does not mean the
	// query finished; callers should retry.
	ExceptionResultNotAvailable
)

func (k ExceptionKind) String() string {
	switch k {
	case ExceptionConnectionFailed:
		return "connection_failed"
	case ExceptionTimeout:
		return "time_limit_exceeded"
	case ExceptionCancelled:
		return "cancel_goal"
	case ExceptionNoQuery:
		return "no_query"
	case ExceptionResultNotAvailable:
		return "result_not_available"
	default:
		return "exception"
	}
}

// Error is an exception raised by the engine while executing a request.
// Term carries the original exception payload.
type Error struct {
	Cause error
	Term  term.Term
	Kind  ExceptionKind
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("prolog %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("prolog %s: %s", e.Kind, e.Term)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Prolog renders the exception payload as engine source text, for
// diagnostics.
func (e *Error) Prolog() string {
	return e.Term.String()
}

// IsException reports whether the exception term has the given name.
// Lets callers branch on specific engine exceptions without parsing
// rendered text:
//
//	var pe *swipl.Error
//	if errors.As(err, &pe) && pe.IsException("syntax_error") { ... }
func (e *Error) IsException(name string) bool {
	return e.Term.Name() == name
}

// AsError returns err as an *Error, or nil if it is not one.
func AsError(err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// IsTimeout reports whether err is an engine query timeout.
func IsTimeout(err error) bool { return hasKind(err, ExceptionTimeout) }

// IsCancelled reports whether err means the goal was interrupted by an
// explicit cancellation.
func IsCancelled(err error) bool { return hasKind(err, ExceptionCancelled) }

// IsNoQuery reports whether err means there was no query running and no
// results left to retrieve.
func IsNoQuery(err error) bool { return hasKind(err, ExceptionNoQuery) }

// IsResultNotAvailable reports whether err is the retry signal from a
// bounded result poll. The query is still running; call
// QueryAsyncResult again.
func IsResultNotAvailable(err error) bool { return hasKind(err, ExceptionResultNotAvailable) }

// IsConnectionFailed reports whether err means the engine is gone.
func IsConnectionFailed(err error) bool { return hasKind(err, ExceptionConnectionFailed) }

func hasKind(err error, kind ExceptionKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// LaunchError indicates the engine process could not be reached or the
// password was rejected at connect time. Fatal to that connection
// attempt, not to the Server.
type LaunchError struct {
	Cause   error
	Message string
	Detail  term.Term
}

func (e *LaunchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("launch failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("launch failed: %s", e.Message)
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}

// EngineNotFoundError indicates the engine binary was not found on the
// search path.
type EngineNotFoundError struct {
	Cause error
	Path  string
}

func (e *EngineNotFoundError) Error() string {
	return fmt.Sprintf("engine binary not found at %q: %v", e.Path, e.Cause)
}

func (e *EngineNotFoundError) Unwrap() error {
	return e.Cause
}
