// Package apperr defines the application error taxonomy shared by all
// storage and service layers. Every error that crosses a package boundary
// is either one of these or wraps one.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindInsufficientStock
	KindEmptyCart
	KindInvalidState
	KindForbidden
	KindUnauthenticated
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindEmptyCart:
		return "empty_cart"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error carries a stable kind plus a human-readable message. The wrapped
// cause stays internal; handlers expose only Kind and Message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind from err, or KindInternal if err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Message returns the client-safe message for err. Internal causes are
// never surfaced verbatim.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal error"
}

// FromPostgres classifies a storage error into the taxonomy: no rows maps
// to NotFound with the given message, unique violations to Conflict,
// foreign-key violations to NotFound, and connection-level failures to
// the retryable Unavailable kind. Anything else stays Internal.
func FromPostgres(err error, notFoundMessage string) *Error {
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(KindNotFound, notFoundMessage, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return Wrap(KindConflict, "resource already exists", err)
		case pgerrcode.ForeignKeyViolation:
			return Wrap(KindNotFound, "referenced resource does not exist", err)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return Wrap(KindUnavailable, "storage conflict, retry the request", err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return Wrap(KindUnavailable, "storage temporarily unavailable", err)
	}

	return Wrap(KindInternal, "storage failure", err)
}

// HTTPStatus maps an error kind to the status code the HTTP layer returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindEmptyCart:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
