package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors used across services and handlers. Callers classify with
// errors.Is and map each kind to an HTTP status at the boundary.
var (
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
	ErrUpstream    = errors.New("upstream error")
)

// Wrap attaches a taxonomy sentinel to err, keeping both in the chain.
func Wrap(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}

// Wrapf builds a new error of the given kind from a format string.
func Wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
