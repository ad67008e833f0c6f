package app

import (
	"context"
	"fmt"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// DefaultStorageKey is the key the spot list is stored under.
const DefaultStorageKey = "fishingSpots"

// Repository owns the canonical spot list and writes every change through
// to the key/value store before exposing it.
//
// A Repository is not safe for concurrent use. State serializes access.
type Repository struct {
	store  ports.KVStore
	key    string
	logger ports.Logger
	spots  []domain.Spot
}

// NewRepository creates a repository over store. An empty key selects
// DefaultStorageKey.
func NewRepository(store ports.KVStore, key string, logger ports.Logger) *Repository {
	if key == "" {
		key = DefaultStorageKey
	}
	return &Repository{
		store:  store,
		key:    key,
		logger: logger,
		spots:  []domain.Spot{},
	}
}

// Key returns the storage key.
func (r *Repository) Key() string {
	return r.key
}

// Load replaces the canonical list with the stored one.
//
// A missing key yields an empty list. An unreadable store leaves the list
// unchanged and returns a *domain.PersistenceError. A blob that does not
// decode resets the list to empty and returns it with a
// *domain.CorruptDataError.
func (r *Repository) Load(ctx context.Context) ([]domain.Spot, error) {
	text, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return r.List(), &domain.PersistenceError{Op: "get", Key: r.key, Err: err}
	}
	if !found {
		r.spots = []domain.Spot{}
		return r.List(), nil
	}

	spots, err := DecodeSpots(text)
	if err != nil {
		r.spots = []domain.Spot{}
		return r.List(), &domain.CorruptDataError{Key: r.key, Err: err}
	}

	r.spots = spots
	r.logger.Debug("spots loaded", ports.Int("count", len(spots)))
	return r.List(), nil
}

// Upsert replaces the spot with the same id in place, or appends it.
func (r *Repository) Upsert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error) {
	if err := spot.Validate(); err != nil {
		return r.List(), err
	}

	spot = spot.Clone()
	next := make([]domain.Spot, 0, len(r.spots)+1)
	replaced := false
	for _, s := range r.spots {
		if s.ID == spot.ID {
			next = append(next, spot)
			replaced = true
			continue
		}
		next = append(next, s)
	}
	if !replaced {
		next = append(next, spot)
	}

	if err := r.write(ctx, next); err != nil {
		return r.List(), err
	}
	return r.List(), nil
}

// Insert saves spot only when no spot with its id exists yet.
func (r *Repository) Insert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error) {
	if _, ok := domain.FindSpot(r.spots, spot.ID); ok {
		return r.List(), fmt.Errorf("spot %d: %w", spot.ID, domain.ErrExists)
	}
	return r.Upsert(ctx, spot)
}

// Remove drops the spot with id. An unknown id is not an error; the
// unchanged list is still written.
func (r *Repository) Remove(ctx context.Context, id int64) ([]domain.Spot, error) {
	next := make([]domain.Spot, 0, len(r.spots))
	for _, s := range r.spots {
		if s.ID != id {
			next = append(next, s)
		}
	}

	if err := r.write(ctx, next); err != nil {
		return r.List(), err
	}
	return r.List(), nil
}

// List returns a copy of the canonical list without touching storage.
func (r *Repository) List() []domain.Spot {
	return domain.CloneSpots(r.spots)
}

// MaxID returns the highest id in the list, or 0 when it is empty.
func (r *Repository) MaxID() int64 {
	return domain.MaxID(r.spots)
}

func (r *Repository) write(ctx context.Context, next []domain.Spot) error {
	text, err := EncodeSpots(next)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Key: r.key, Err: err}
	}
	if err := r.store.Set(ctx, r.key, text); err != nil {
		r.logger.Error("failed to write spots", ports.String("key", r.key), ports.Err(err))
		return &domain.PersistenceError{Op: "set", Key: r.key, Err: err}
	}
	r.spots = next
	return nil
}
