package domain

import "errors"

// Sentinel errors shared across services.
var (
	ErrNotFound  = errors.New("record not found")
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError rejects malformed input before any mutation takes place.
type ValidationError struct {
	message string
}

func (e ValidationError) Error() string { return e.message }

// Validationf builds a ValidationError from a plain message.
func Validationf(msg string) error {
	return ValidationError{message: msg}
}

// IsValidation helps callers distinguish rejected input from infrastructure
// failures.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
