package store

import (
	"errors"
	"fmt"
)

// ConflictError is returned by Add when the id is already taken.
type ConflictError struct {
	ID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %d already exists", e.ID)
}

// NotFoundError is returned when no product has the requested id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

// PersistError reports a mutation whose save failed. The in-memory change
// has already been rolled back when the caller sees it.
type PersistError struct {
	Op  OpKind
	ID  int64
	Err error
}

func (e *PersistError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s: changes rolled back: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s product %d: changes rolled back: %v", e.Op, e.ID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsConflict returns true if err is or wraps a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound returns true if err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsPersistFailure returns true if err is or wraps a *PersistError.
func IsPersistFailure(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
