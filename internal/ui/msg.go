package ui

import "github.com/bft-labs/fishdiary/internal/domain"

// Bubble Tea message types

// spotsMsg carries a new value of the shared list.
type spotsMsg struct {
	spots []domain.Spot
}

// errMsg reports a failed background operation.
type errMsg struct {
	err error
}

// savedMsg is sent when the form's editor persisted its spot.
type savedMsg struct {
	spot domain.Spot
}

// deletedMsg is sent when a spot was removed.
type deletedMsg struct {
	id int64
}

// refreshedMsg is sent when a manual reload finished.
type refreshedMsg struct {
	count int
	err   error
}

// formErrMsg reports a save or delete failure while the form stays open.
type formErrMsg struct {
	err error
}

// formCancelledMsg is sent when the form is dismissed without saving.
type formCancelledMsg struct{}
