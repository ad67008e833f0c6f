package diary

import (
	"github.com/bft-labs/fishdiary/internal/app"
	"github.com/bft-labs/fishdiary/internal/domain"
)

// Record types.
type (
	Spot       = domain.Spot
	Coordinate = domain.Coordinate
	Image      = domain.Image

	ValidationError  = domain.ValidationError
	PersistenceError = domain.PersistenceError
	CorruptDataError = domain.CorruptDataError
)

// Editor is an in-flight edit of one spot. See NewDraft and Edit.
type Editor = app.Editor

// EditStatus is the lifecycle position of an Editor.
type EditStatus = app.EditStatus

const (
	EditDraft     = app.EditDraft
	EditSaved     = app.EditSaved
	EditDeleted   = app.EditDeleted
	EditCancelled = app.EditCancelled
)

// Errors returned by a Diary. Match them with errors.Is.
var (
	ErrValidation      = domain.ErrValidation
	ErrPersistence     = domain.ErrPersistence
	ErrCorruptData     = domain.ErrCorruptData
	ErrNotFound        = domain.ErrNotFound
	ErrExists          = domain.ErrExists
	ErrSessionClosed   = domain.ErrSessionClosed
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// Status is the runtime status of a Diary.
type Status int

const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
	StatusCrashed
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusStarting:
		return "Starting"
	case StatusRunning:
		return "Running"
	case StatusStopping:
		return "Stopping"
	case StatusCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StatusChangeEvent describes one status transition.
type StatusChangeEvent struct {
	Previous Status
	Current  Status
	Reason   string
}

func convertPhase(p app.Phase) Status {
	switch p {
	case app.PhaseStarting:
		return StatusStarting
	case app.PhaseRunning:
		return StatusRunning
	case app.PhaseStopping:
		return StatusStopping
	case app.PhaseCrashed:
		return StatusCrashed
	default:
		return StatusStopped
	}
}
