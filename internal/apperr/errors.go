// Package apperr defines the error kinds shared across the application.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformed       = errors.New("malformed input")
	ErrSchemaViolation = errors.New("schema structure violation")
	ErrIO              = errors.New("i/o failure")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidPath     = errors.New("invalid path")
)
