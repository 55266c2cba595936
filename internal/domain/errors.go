package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// FieldError reports invalid input for a named field. It matches ErrInvalid.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Is(target error) bool { return target == ErrInvalid }

func NewFieldError(field, msg string) *FieldError {
	return &FieldError{Field: field, Message: msg}
}
