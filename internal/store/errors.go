package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidID matches ErrNotFound: a malformed id can never resolve to a document.
	ErrInvalidID     = fmt.Errorf("%w: malformed identifier", ErrNotFound)
	ErrDuplicate     = errors.New("store: duplicate key")
	ErrNegativeStock = errors.New("store: stock would go negative")
	ErrConflict      = errors.New("store: transaction conflict")
)

// InfraError is the infrastructure channel: driver, network and commit failures.
// Domain outcomes (not found, duplicate, stock guard) are never wrapped in it.
type InfraError struct {
	Op  string
	Err error
}

func (e *InfraError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *InfraError) Unwrap() error { return e.Err }

func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfraError{Op: op, Err: err}
}

func IsInfra(err error) bool {
	var ie *InfraError
	return errors.As(err, &ie)
}
