package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// Default backoff configuration values.
const (
	DefaultBackoffInitial = 100 * time.Millisecond
	DefaultBackoffMax     = 2 * time.Second
)

// backoff implements exponential backoff with jitter.
type backoff struct {
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		max:     max,
		current: initial,
	}
}

// Wait sleeps for the current duration (±20% jitter) and doubles it.
// It returns early with ctx.Err() when ctx is done.
func (b *backoff) Wait(ctx context.Context) error {
	jitter := float64(b.current) * 0.2 * (rand.Float64()*2 - 1)
	timer := time.NewTimer(time.Duration(float64(b.current) + jitter))
	defer timer.Stop()

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RefreshWithRetry calls Refresh up to attempts times, backing off between
// tries while the store is unreadable. Corrupt data is not retried.
func (s *State) RefreshWithRetry(ctx context.Context, attempts int) ([]domain.Spot, error) {
	if attempts < 1 {
		attempts = 1
	}
	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)

	var (
		spots []domain.Spot
		err   error
	)
	for i := 1; i <= attempts; i++ {
		spots, err = s.Refresh(ctx)
		if err == nil || !errors.Is(err, domain.ErrPersistence) || i == attempts {
			return spots, err
		}
		s.logger.Warn("store unreadable, retrying",
			ports.Int("attempt", i),
			ports.Int("max_attempts", attempts),
			ports.Err(err),
		)
		if werr := b.Wait(ctx); werr != nil {
			return spots, err
		}
	}
	return spots, err
}
