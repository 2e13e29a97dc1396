// Package apperr holds the error kinds surfaced to clients.
package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrGraphInconsistency = errors.New("graph inconsistency")
	ErrInternal           = errors.New("internal error")
)
