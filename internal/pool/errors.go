package pool

import "fmt"

// Kind is the closed set of domain error kinds from spec.md §7. The
// transport layer (pkg/utils) maps each Kind to an HTTP status; the
// Draft Room Coordinator/dispatcher maps each to an Error{message} frame.
type Kind string

const (
	KindInvalidState       Kind = "InvalidState"
	KindNotAuthorized      Kind = "NotAuthorized"
	KindNotYourTurn        Kind = "NotYourTurn"
	KindInvariantViolated  Kind = "InvariantViolated"
	KindNotFound           Kind = "NotFound"
	KindAlreadyExists      Kind = "AlreadyExists"
	KindTooEarly           Kind = "TooEarly"
	KindTooLate            Kind = "TooLate"
	KindStorageFailure     Kind = "StorageFailure"
	KindAuthFailure        Kind = "AuthFailure"
)

// Error is the engine's single error type. Every engine operation returns
// either a mutated Pool or an *Error; it never returns a bare error so
// callers can always branch on Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func errInvalidState(expected, actual PoolState) *Error {
	return newErr(KindInvalidState, "pool status is %s, expected %s", actual, expected)
}

func errNotAuthorized(detail string) *Error {
	return newErr(KindNotAuthorized, "%s", detail)
}

func errNotYourTurn(expected string) *Error {
	return newErr(KindNotYourTurn, "It is %s's turn.", expected)
}

func errInvariant(format string, args ...interface{}) *Error {
	return newErr(KindInvariantViolated, format, args...)
}

func errNotFound(entity string) *Error {
	return newErr(KindNotFound, "%s not found", entity)
}

func errAlreadyExists(entity string) *Error {
	return newErr(KindAlreadyExists, "%s already exists", entity)
}

func errTooEarly(detail string) *Error {
	return newErr(KindTooEarly, "%s", detail)
}

func errTooLate(detail string) *Error {
	return newErr(KindTooLate, "%s", detail)
}
