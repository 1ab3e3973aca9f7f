package model

import (
	"errors"
	"fmt"
)

// ValidationError reports input that cannot be turned into an optimization
// model. Message is meant for the caller as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func validationErrorf(format string, args ...any) error {
	return NewValidationError(format, args...)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
