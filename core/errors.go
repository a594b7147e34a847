package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is a message attached to one input field, keyed by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned by the services when an input is rejected.
// Err, if set, is the storage or lookup error behind the rejection.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

// FieldErrors returns the field messages by field name, nil if there are none.
func (err ValidationError) FieldErrors() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	flds := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

// shutdownError asks the API server to stop: something it relies on is broken.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (s shutdownError) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var sErr *shutdownError
	return errors.As(err, &sErr)
}
