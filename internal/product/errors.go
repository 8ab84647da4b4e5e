package product

import (
	"errors"
	"fmt"
)

// Field names reported in InvalidFieldError.
const (
	FieldID       = "id"
	FieldName     = "name"
	FieldQuantity = "quantity"
	FieldPrice    = "price"
)

// InvalidFieldError reports a single field that failed validation.
type InvalidFieldError struct {
	// Field is one of FieldID, FieldName, FieldQuantity, FieldPrice.
	Field string

	// Value is the offending input as text. Empty when the input was empty.
	Value string

	// Reason describes the violated constraint.
	Reason string
}

func (e *InvalidFieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsInvalidField returns true if err is or wraps an *InvalidFieldError.
func IsInvalidField(err error) bool {
	var fe *InvalidFieldError
	return errors.As(err, &fe)
}

func invalid(field, value, reason string) *InvalidFieldError {
	return &InvalidFieldError{Field: field, Value: value, Reason: reason}
}
