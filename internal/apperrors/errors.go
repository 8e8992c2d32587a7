package apperrors

import (
	"errors"
	"fmt"
)

// Common error values for the API client
var (
	// Session errors
	ErrNotAuthenticated = NewValidation("you must be signed in to do that")
	ErrNoIdentity       = errors.New("no identity available")

	// Gateway errors
	ErrEmptyResponse = errors.New("empty response body")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// ValidationError is raised locally, before any network call, when a
// precondition is violated. It always carries a fixed human-readable
// message.
type ValidationError struct {
	Msg string
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
