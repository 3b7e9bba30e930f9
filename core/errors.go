package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PersistenceError wraps a failed read or write against the remote store.
type PersistenceError struct {
	Op  string // e.g. "saving student"
	Err error
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func (err PersistenceError) Error() string {
	if err.Err == nil {
		return err.Op
	}
	return err.Op + ": " + err.Err.Error()
}

func (err PersistenceError) Cause() error  { return err.Err }
func (err PersistenceError) Unwrap() error { return err.Err }

// IsPersistence reports whether err (or its cause) is a *PersistenceError.
func IsPersistence(err error) bool {
	var pErr *PersistenceError
	return errors.As(err, &pErr)
}

// InitializationError is returned when the first load of the registry fails.
type InitializationError struct {
	Err error
}

func NewInitializationError(err error) error {
	return &InitializationError{Err: err}
}

func (err InitializationError) Error() string {
	return "initializing registry: " + err.Err.Error()
}

func (err InitializationError) Cause() error  { return err.Err }
func (err InitializationError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
