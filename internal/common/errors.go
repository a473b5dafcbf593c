package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")
	ErrorConflict        = errors.New("already exists")
	ErrorValidation      = errors.New("validation error")

	// token errors, both are reported as unauthenticated
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error attaches a client-facing detail message to one of the error kinds
// above. errors.Is(err, kind) keeps working through it.
type Error struct {
	Kind   error
	Detail string
}

// NewError returns an Error of the given kind.
func NewError(kind error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.Kind }

// Detail returns the client-facing message carried by err, or fallback when
// err carries none.
func Detail(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}
