package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for background workers.
const ShutdownTimeout = 10 * time.Second

// Phase is the runtime phase of a diary.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseStopping
	PhaseCrashed
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "Stopped"
	case PhaseStarting:
		return "Starting"
	case PhaseRunning:
		return "Running"
	case PhaseStopping:
		return "Stopping"
	case PhaseCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	PhaseStopped:  {PhaseStarting},
	PhaseStarting: {PhaseRunning, PhaseStopping, PhaseCrashed},
	PhaseRunning:  {PhaseStopping, PhaseCrashed},
	PhaseStopping: {PhaseStopped, PhaseCrashed},
	PhaseCrashed:  {PhaseStarting},
}

// PhaseListener is told about every phase change.
type PhaseListener func(previous, current Phase, reason string)

// Lifecycle tracks the diary phase and its background workers (the
// mutation queue and the store watcher).
type Lifecycle struct {
	mu       sync.RWMutex
	phase    Phase
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   ports.Logger
	listener PhaseListener
}

// NewLifecycle creates a lifecycle in PhaseStopped. listener may be nil.
func NewLifecycle(logger ports.Logger, listener PhaseListener) *Lifecycle {
	return &Lifecycle{
		phase:    PhaseStopped,
		logger:   logger,
		listener: listener,
	}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// TransitionTo moves to next. Leaving Stopped or Crashed for anything but
// Starting fails with ErrNotRunning; every other illegal move fails with
// ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(next Phase, reason string) error {
	l.mu.Lock()
	prev := l.phase
	if !allowed(prev, next) {
		l.mu.Unlock()
		if prev == PhaseStopped || prev == PhaseCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}
	l.phase = next
	l.mu.Unlock()

	if l.listener != nil {
		l.listener(prev, next, reason)
	}
	l.logger.Info("phase transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

func allowed(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// CanStart reports whether Start may be called.
func (l *Lifecycle) CanStart() bool {
	p := l.Phase()
	return p == PhaseStopped || p == PhaseCrashed
}

// CanStop reports whether Stop may be called.
func (l *Lifecycle) CanStop() bool {
	p := l.Phase()
	return p == PhaseRunning || p == PhaseStarting
}

// SetCancel stores the function that stops the workers.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel signals the workers to stop.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn as a tracked worker. A worker that fails cancels its
// siblings and moves the diary to PhaseCrashed.
func (l *Lifecycle) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := fn(ctx); err != nil && ctx.Err() == nil {
			l.logger.Error("worker failed", ports.String("worker", name), ports.Err(err))
			l.Cancel()
			_ = l.TransitionTo(PhaseCrashed, fmt.Sprintf("%s: %v", name, err))
		}
	}()
}

// WaitWithTimeout waits for every worker started with Go.
// Returns ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, workers still running",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
