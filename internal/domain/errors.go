package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the fishdiary domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("fishdiary: validation failed")

	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("fishdiary: persistence failed")

	// ErrCorruptData is matched by every CorruptDataError.
	ErrCorruptData = errors.New("fishdiary: corrupt stored data")

	// ErrNotFound is returned when a spot id is not in the list.
	ErrNotFound = errors.New("fishdiary: spot not found")

	// ErrExists is returned by Insert when the id is already taken.
	ErrExists = errors.New("fishdiary: spot already exists")

	// ErrSessionClosed is returned by an editor after Delete or Cancel.
	ErrSessionClosed = errors.New("fishdiary: edit session closed")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("fishdiary: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance,
	// or when a mutation is submitted while the queue is not running.
	ErrNotRunning = errors.New("fishdiary: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("fishdiary: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("fishdiary: invalid configuration")
)

// ValidationError rejects a mutation before it reaches storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError reports a failed read or write on the store adapter.
// The in-memory list is left at its last confirmed value.
type PersistenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CorruptDataError reports a stored blob that does not decode to a spot list.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt data under %q: %v", e.Key, e.Err)
}

// Is reports whether target is ErrCorruptData.
func (e *CorruptDataError) Is(target error) bool {
	return target == ErrCorruptData
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}
