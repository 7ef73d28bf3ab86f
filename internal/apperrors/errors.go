package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBackendWrite = errors.New("log store write failed")
	ErrBackendRead  = errors.New("log store read failed")
	ErrMissingField = errors.New("missing required fields")
	ErrMalformed    = errors.New("malformed input")
)

// ValidationError is returned before any store interaction when caller input
// is incomplete or unparseable. Fields is set for missing-field errors.
type ValidationError struct {
	Kind   error
	Fields []string
	Detail string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Fields, ", "))
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	default:
		return e.Kind.Error()
	}
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func NewMissingFieldError(fields ...string) error {
	return &ValidationError{Kind: ErrMissingField, Fields: fields}
}

func NewMalformedError(format string, args ...interface{}) error {
	return &ValidationError{Kind: ErrMalformed, Detail: fmt.Sprintf(format, args...)}
}

func NewWriteError(err error) error {
	return fmt.Errorf("%w: %w", ErrBackendWrite, err)
}

func NewReadError(err error) error {
	return fmt.Errorf("%w: %w", ErrBackendRead, err)
}

// MissingFields returns the field list carried by a missing-field error, or nil.
func MissingFields(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) && errors.Is(ve.Kind, ErrMissingField) {
		return ve.Fields
	}
	return nil
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
