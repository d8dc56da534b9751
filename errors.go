package termit

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for callers that need to react to it.
type Kind int

const (
	// KindPersistence wraps any unexpected storage failure.
	KindPersistence Kind = iota
	// KindNotFound means an identifier does not resolve to a stored instance.
	KindNotFound
	// KindInvalid means an invariant would be violated; nothing was written.
	KindInvalid
	// KindUnsupported marks an operation that is never allowed.
	KindUnsupported
	// KindRemoval means a vocabulary removal was rejected.
	KindRemoval
	// KindConflict means an identifier is already taken.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindUnsupported:
		return "unsupported"
	case KindRemoval:
		return "removal"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported operation of this
// package.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "terms.find_all_roots"
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoCurrentWorkspace is returned when a call needs the current workspace
// and the context carries none.
var ErrNoCurrentWorkspace = &Error{Kind: KindNotFound, Message: "no current workspace"}

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// wrap sets the underlying cause of e and returns it.
func (e *Error) wrap(err error) *Error {
	e.Err = err
	return e
}

func notFound(op, format string, args ...any) *Error {
	return newError(KindNotFound, op, format, args...)
}

// wrapPersistence wraps a storage failure. Errors that already carry a Kind
// pass through unchanged.
func wrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindPersistence when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

func isKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsNotFound(err error) bool    { return isKind(err, KindNotFound) }
func IsInvalid(err error) bool     { return isKind(err, KindInvalid) }
func IsUnsupported(err error) bool { return isKind(err, KindUnsupported) }
func IsRemoval(err error) bool     { return isKind(err, KindRemoval) }
func IsConflict(err error) bool    { return isKind(err, KindConflict) }
func IsPersistence(err error) bool { return isKind(err, KindPersistence) }
