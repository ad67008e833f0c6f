package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/fishdiary/internal/domain"
)

// EditStatus is the position of an edit session in the spot lifecycle.
type EditStatus int

const (
	// EditDraft is a spot that has never been saved.
	EditDraft EditStatus = iota
	// EditSaved is a spot present in the list.
	EditSaved
	// EditDeleted is terminal.
	EditDeleted
	// EditCancelled means the session was discarded.
	EditCancelled
)

func (s EditStatus) String() string {
	switch s {
	case EditDraft:
		return "Draft"
	case EditSaved:
		return "Saved"
	case EditDeleted:
		return "Deleted"
	case EditCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// SpotWriter is the mutation side of State used by an Editor.
type SpotWriter interface {
	Upsert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error)
	Remove(ctx context.Context, id int64) ([]domain.Spot, error)
}

// Editor holds one in-flight edit of a spot. Field changes stay local until
// Save. The coordinate is fixed when the session starts.
type Editor struct {
	writer SpotWriter
	ids    *IDGenerator
	spot   domain.Spot
	status EditStatus
}

// NewDraft starts a session for a spot dropped at coord. The draft is not
// part of the list until saved.
func NewDraft(writer SpotWriter, ids *IDGenerator, coord domain.Coordinate) *Editor {
	return &Editor{
		writer: writer,
		ids:    ids,
		spot: domain.Spot{
			ID:         ids.Next(),
			Coordinate: coord,
			Images:     []domain.Image{},
		},
		status: EditDraft,
	}
}

// Open starts a session for an existing spot.
func Open(writer SpotWriter, ids *IDGenerator, spot domain.Spot) *Editor {
	return &Editor{
		writer: writer,
		ids:    ids,
		spot:   spot.Clone(),
		status: EditSaved,
	}
}

// Spot returns a copy of the edited record.
func (e *Editor) Spot() domain.Spot {
	return e.spot.Clone()
}

// Status returns the session status.
func (e *Editor) Status() EditStatus {
	return e.status
}

func (e *Editor) open() error {
	if e.status == EditDeleted || e.status == EditCancelled {
		return domain.ErrSessionClosed
	}
	return nil
}

// SetTitle replaces the title.
func (e *Editor) SetTitle(title string) error {
	if err := e.open(); err != nil {
		return err
	}
	e.spot.Title = title
	return nil
}

// SetDescription replaces the description.
func (e *Editor) SetDescription(desc string) error {
	if err := e.open(); err != nil {
		return err
	}
	e.spot.Description = desc
	return nil
}

// AddImages appends one image per uri, keeping insertion order.
func (e *Editor) AddImages(uris ...string) ([]domain.Image, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	added := make([]domain.Image, 0, len(uris))
	for _, uri := range uris {
		img := domain.Image{ID: float64(e.ids.Next()), URI: uri}
		e.spot.Images = append(e.spot.Images, img)
		added = append(added, img)
	}
	return added, nil
}

// RemoveImage drops the image with id. Unknown ids are ignored.
func (e *Editor) RemoveImage(id float64) error {
	if err := e.open(); err != nil {
		return err
	}
	kept := e.spot.Images[:0]
	for _, img := range e.spot.Images {
		if img.ID != id {
			kept = append(kept, img)
		}
	}
	e.spot.Images = kept
	return nil
}

// Save persists the record. On a validation or persistence error the
// session stays open so the caller can correct and retry.
func (e *Editor) Save(ctx context.Context) ([]domain.Spot, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	spots, err := e.writer.Upsert(ctx, e.spot.Clone())
	if err != nil {
		return spots, err
	}
	e.status = EditSaved
	return spots, nil
}

// Delete removes a saved record. Drafts were never stored and cannot be
// deleted; cancel them instead.
func (e *Editor) Delete(ctx context.Context) ([]domain.Spot, error) {
	if err := e.open(); err != nil {
		return nil, err
	}
	if e.status == EditDraft {
		return nil, fmt.Errorf("delete draft %d: %w", e.spot.ID, domain.ErrNotFound)
	}
	spots, err := e.writer.Remove(ctx, e.spot.ID)
	if err != nil {
		return spots, err
	}
	e.status = EditDeleted
	return spots, nil
}

// Cancel discards the session. The list is not touched.
func (e *Editor) Cancel() {
	if e.status == EditDeleted {
		return
	}
	e.status = EditCancelled
}
