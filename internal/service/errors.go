package service

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors unwrap to one of these so the HTTP layer can
// map them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrThrottled          = errors.New("too many attempts, try again later")
	ErrDeliveryFailed     = errors.New("unable to deliver temporary password")
	ErrUnavailable        = errors.New("feature is not configured")
)

var (
	ErrUserNotFound    = kindError(ErrNotFound, "user not found")
	ErrBookingNotFound = kindError(ErrNotFound, "booking not found")
	ErrCompanyNotFound = kindError(ErrNotFound, "company not found")
	ErrAdminOnly       = kindError(ErrForbidden, "admin only")
	ErrNotOwner        = kindError(ErrForbidden, "you do not have access to this booking")
	ErrUsernameTaken   = kindError(ErrConflict, "username already exists")
	ErrCompanyTaken    = kindError(ErrConflict, "company name already exists")
)

type typedError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &typedError{kind: kind, msg: msg}
}

func (e *typedError) Error() string { return e.msg }
func (e *typedError) Unwrap() error { return e.kind }

// ValidationError reports bad client input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func required(field string) *ValidationError {
	return invalid(field, "%s is required", field)
}
