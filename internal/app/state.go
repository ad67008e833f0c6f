package app

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// State is the shared, observable mirror of the spot list.
//
// Every read and write of the repository runs on the goroutine executing
// Run, one request at a time. Readers use Spots, which never blocks.
// Subscribers receive each confirmed list on a channel that only ever holds
// the newest value.
type State struct {
	repo   *Repository
	logger ports.Logger

	requests chan *request
	mirror   atomic.Pointer[[]domain.Spot]

	mu      sync.Mutex
	subs    map[int]chan []domain.Spot
	nextSub int
	stopped chan struct{}
}

type request struct {
	ctx    context.Context
	apply  func(ctx context.Context) ([]domain.Spot, error)
	always bool // publish even when the list is unchanged
	done   chan result
}

type result struct {
	spots []domain.Spot
	err   error
}

// NewState creates a state over repo. The mirror starts empty; call
// Refresh after Run is started to load the stored list.
func NewState(repo *Repository, logger ports.Logger) *State {
	s := &State{
		repo:     repo,
		logger:   logger,
		requests: make(chan *request),
		subs:     make(map[int]chan []domain.Spot),
	}
	empty := []domain.Spot{}
	s.mirror.Store(&empty)
	return s
}

// Run processes queued requests until ctx is done. Only one Run may be
// active at a time.
func (s *State) Run(ctx context.Context) error {
	loop, err := s.Bind()
	if err != nil {
		return err
	}
	return loop(ctx)
}

// Bind marks the queue as running and returns the loop that serves it.
// Requests submitted after Bind returns wait for the loop instead of
// failing with ErrNotRunning.
func (s *State) Bind() (func(ctx context.Context) error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped != nil {
		return nil, domain.ErrAlreadyRunning
	}
	stopped := make(chan struct{})
	s.stopped = stopped

	return func(ctx context.Context) error {
		defer func() {
			s.mu.Lock()
			s.stopped = nil
			s.mu.Unlock()
			close(stopped)
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case req := <-s.requests:
				s.handle(req)
			}
		}
	}, nil
}

func (s *State) handle(req *request) {
	if err := req.ctx.Err(); err != nil {
		req.done <- result{err: err}
		return
	}

	// A write that has started is never cancelled midway.
	spots, err := req.apply(context.WithoutCancel(req.ctx))

	var corrupt *domain.CorruptDataError
	switch {
	case err == nil:
		s.publish(spots, req.always)
	case errors.As(err, &corrupt):
		s.logger.Warn("stored spots are corrupt, starting with an empty list",
			ports.String("key", corrupt.Key), ports.Err(corrupt.Err))
		s.publish(spots, false)
	default:
		// Keep the last confirmed mirror.
		spots = s.Spots()
	}

	req.done <- result{spots: spots, err: err}
}

// publish replaces the mirror and notifies every subscriber before the
// next request is handled.
func (s *State) publish(spots []domain.Spot, always bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !always && reflect.DeepEqual(*s.mirror.Load(), spots) {
		return
	}

	stored := domain.CloneSpots(spots)
	s.mirror.Store(&stored)

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- domain.CloneSpots(stored)
	}
}

func (s *State) submit(ctx context.Context, req *request) ([]domain.Spot, error) {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped == nil {
		return s.Spots(), domain.ErrNotRunning
	}

	req.ctx = ctx
	req.done = make(chan result, 1)

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return s.Spots(), ctx.Err()
	case <-stopped:
		return s.Spots(), domain.ErrNotRunning
	}

	select {
	case res := <-req.done:
		return res.spots, res.err
	case <-ctx.Done():
		return s.Spots(), ctx.Err()
	}
}

// applyMutation runs fn on the queue and publishes its list only after fn
// succeeds.
func (s *State) applyMutation(ctx context.Context, fn func(ctx context.Context) ([]domain.Spot, error)) ([]domain.Spot, error) {
	return s.submit(ctx, &request{apply: fn, always: true})
}

// Upsert saves spot through the repository.
func (s *State) Upsert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error) {
	return s.applyMutation(ctx, func(ctx context.Context) ([]domain.Spot, error) {
		return s.repo.Upsert(ctx, spot)
	})
}

// Insert saves spot unless its id is taken. The check runs on the queue,
// so of two concurrent inserts with one id exactly one succeeds.
func (s *State) Insert(ctx context.Context, spot domain.Spot) ([]domain.Spot, error) {
	return s.applyMutation(ctx, func(ctx context.Context) ([]domain.Spot, error) {
		return s.repo.Insert(ctx, spot)
	})
}

// Remove deletes the spot with id through the repository.
func (s *State) Remove(ctx context.Context, id int64) ([]domain.Spot, error) {
	return s.applyMutation(ctx, func(ctx context.Context) ([]domain.Spot, error) {
		return s.repo.Remove(ctx, id)
	})
}

// Refresh reloads the list from storage and replaces the mirror wholesale.
// Subscribers are notified only when the list changed. Corrupt data leaves
// an empty mirror and returns a *domain.CorruptDataError.
func (s *State) Refresh(ctx context.Context) ([]domain.Spot, error) {
	return s.submit(ctx, &request{apply: s.repo.Load})
}

// Spots returns a copy of the latest confirmed list.
func (s *State) Spots() []domain.Spot {
	return domain.CloneSpots(*s.mirror.Load())
}

// Spot returns the spot with id from the mirror.
func (s *State) Spot(id int64) (domain.Spot, bool) {
	return domain.FindSpot(*s.mirror.Load(), id)
}

// Subscribe returns the current list and a channel carrying every later
// confirmed list. The channel is closed by cancel.
func (s *State) Subscribe() ([]domain.Spot, <-chan []domain.Spot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan []domain.Spot, 1)
	s.subs[id] = ch
	snapshot := domain.CloneSpots(*s.mirror.Load())

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return snapshot, ch, cancel
}

// Running reports whether a Run loop is active.
func (s *State) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped != nil
}
