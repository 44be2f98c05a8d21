package service

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/timetrack/internal/access"
	"github.com/kiranshivaraju/timetrack/internal/store"
)

var (
	ErrUnauthenticated = access.ErrUnauthenticated
	ErrForbidden       = access.ErrForbidden
	ErrNotFound        = access.ErrNotFound

	ErrInvalidCredential = errors.New("invalid email or password")
	ErrTooManyAttempts   = errors.New("too many failed login attempts")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

// Error carries a caller-facing message for a validation or conflict failure.
// errors.Is matches it against its Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

var kinds = []error{
	ErrUnauthenticated, ErrForbidden, ErrNotFound,
	ErrInvalidCredential, ErrTooManyAttempts, ErrValidation, ErrConflict,
}

// translate maps store failures onto service error kinds. Errors that already
// carry a kind pass through unchanged; anything else is wrapped with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return err
		}
	}
	switch {
	case errors.Is(err, access.ErrLocationCustomerMismatch):
		return validationf("%s", access.ErrLocationCustomerMismatch.Error())
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrSerialization):
		return conflictf("The record was changed by another request. Reload and try again.")
	case errors.Is(err, store.ErrDuplicateKey):
		return conflictf("The record already exists.")
	}
	return fmt.Errorf("%s: %w", op, err)
}
