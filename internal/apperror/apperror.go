// Package apperror defines the flat error taxonomy shared by the booking
// core and the HTTP layer.  Every failure surfaced to a caller is an
// *Error carrying one Kind and a human readable message.  Handlers map
// kinds to HTTP statuses; callers compare with errors.Is against the
// Err* sentinels, which match on kind only.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindQuotaExceeded
	KindInvalidState
	KindDeadlinePassed
	KindUnauthorized
	KindTransientStore
	KindValidation
)

var kindNames = map[Kind]string{
	KindInternal:       "internal",
	KindNotFound:       "not_found",
	KindConflict:       "conflict",
	KindQuotaExceeded:  "quota_exceeded",
	KindInvalidState:   "invalid_state",
	KindDeadlinePassed: "deadline_passed",
	KindUnauthorized:   "unauthorized",
	KindTransientStore: "transient_store",
	KindValidation:     "validation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HTTPStatus returns the status code a handler should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindInvalidState, KindDeadlinePassed:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusForbidden
	case KindTransientStore:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type of the taxonomy.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict)
// holds for every conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound       = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict       = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrQuotaExceeded  = &Error{Kind: KindQuotaExceeded, Msg: "quota exceeded"}
	ErrInvalidState   = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrDeadlinePassed = &Error{Kind: KindDeadlinePassed, Msg: "deadline passed"}
	ErrUnauthorized   = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrTransientStore = &Error{Kind: KindTransientStore, Msg: "transient store error"}
	ErrValidation     = &Error{Kind: KindValidation, Msg: "validation failed"}
)

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not part
// of the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool { return KindOf(err) == KindTransientStore }
