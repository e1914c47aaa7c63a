package types

import "errors"

// Sentinel errors for the account service. Services and repositories wrap
// these with fmt.Errorf("...: %w", ...) so handlers can map them to
// transport status codes with errors.Is.
var (
	ErrUnauthenticated = errors.New("authentication required or failed")
	ErrForbidden       = errors.New("action forbidden")
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrBadRequest      = errors.New("invalid request")
	ErrValidation      = errors.New("validation failed")
	ErrInternal        = errors.New("internal server error")
)

// ValidationError carries per-field messages for a failed request.
// It unwraps to ErrValidation so errors.Is keeps working at the handler.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}
