package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by the audio layer and its platform backends.
var (
	// ErrNotFound is returned when a device or default role cannot be found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for conflicting or out-of-range inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupported is returned when the platform has no endpoint control.
	ErrUnsupported = errors.New("audio endpoint control is not supported on this platform")
)

// KindError is an error with a user-facing message that matches one of the
// error kinds above through errors.Is.
type KindError struct {
	Kind error
	Msg  string
}

func (e *KindError) Error() string { return e.Msg }

// Unwrap returns the error kind.
func (e *KindError) Unwrap() error { return e.Kind }

// NotFoundf returns a KindError of kind ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return &KindError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf returns a KindError of kind ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return &KindError{Kind: ErrInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`   // JSON path to the field (e.g., "volume")
	Message string `json:"message"` // Human-readable error message
	Value   any    `json:"value"`   // The invalid value that was provided
}

// ValidationError collects multiple field validation errors.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// NewValidationError creates a new empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{
		Errors: make([]FieldError, 0),
	}
}

// Add adds a field error to the collection.
func (v *ValidationError) Add(field, message string, value any) {
	v.Errors = append(v.Errors, FieldError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// HasErrors reports whether any field errors were collected.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		if e.Field == "" {
			parts = append(parts, e.Message)
			continue
		}
		parts = append(parts, e.Field+" "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Unwrap reports validation failures as ErrInvalidArgument.
func (v *ValidationError) Unwrap() error { return ErrInvalidArgument }
