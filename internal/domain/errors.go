package domain

import "errors"

var (
	// ErrNotFound means a referenced partner, loan, installment or payment
	// does not exist. Nothing was changed.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the store aborted a transaction because of a
	// concurrent modification; the operation may be retried.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects malformed or out-of-range input before any state
// change happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
