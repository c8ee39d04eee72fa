// Package apperror holds the domain error taxonomy shared by services and handlers.
//
// Services return errors built with New; handlers map them to HTTP responses with
// HTTPStatus and Code. Anything that does not unwrap to one of the sentinels below is an
// infrastructure failure.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain sentinels. Compare with errors.Is.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error carries a human-readable message and unwraps to its sentinel kind.
type Error struct {
	kind    error
	message string
}

// New builds a domain error of the given kind.
func New(kind error, format string, args ...any) error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

// IsDomain reports whether err belongs to the domain taxonomy.
func IsDomain(err error) bool {
	return Code(err) != "internal"
}

// Code returns the stable machine-readable kind of err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}

// HTTPStatus maps err to a status code. Domain rejections are all 400 for
// compatibility with existing clients; the kind travels in the body instead.
func HTTPStatus(err error) int {
	switch Code(err) {
	case "unauthorized":
		return http.StatusUnauthorized
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
