package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// phaseRecorder tracks phase changes for testing.
type phaseRecorder struct {
	mu     sync.Mutex
	events []phaseChange
}

type phaseChange struct {
	previous Phase
	current  Phase
	reason   string
}

func (r *phaseRecorder) listen(previous, current Phase, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, phaseChange{previous, current, reason})
}

func (r *phaseRecorder) Events() []phaseChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]phaseChange{}, r.events...)
}

func TestNewLifecycle(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l.Phase() != PhaseStopped {
		t.Errorf("initial phase = %v, want PhaseStopped", l.Phase())
	}
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseStopped, "Stopped"},
		{PhaseStarting, "Starting"},
		{PhaseRunning, "Running"},
		{PhaseStopping, "Stopping"},
		{PhaseCrashed, "Crashed"},
		{Phase(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %s, want %s", tt.phase, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Phase
		to      Phase
		wantErr error
	}{
		{"stopped to starting", PhaseStopped, PhaseStarting, nil},
		{"starting to running", PhaseStarting, PhaseRunning, nil},
		{"starting to stopping", PhaseStarting, PhaseStopping, nil},
		{"starting to crashed", PhaseStarting, PhaseCrashed, nil},
		{"running to stopping", PhaseRunning, PhaseStopping, nil},
		{"running to crashed", PhaseRunning, PhaseCrashed, nil},
		{"stopping to stopped", PhaseStopping, PhaseStopped, nil},
		{"crashed to starting", PhaseCrashed, PhaseStarting, nil},

		{"stopped to running", PhaseStopped, PhaseRunning, domain.ErrNotRunning},
		{"stopped to stopping", PhaseStopped, PhaseStopping, domain.ErrNotRunning},
		{"crashed to stopped", PhaseCrashed, PhaseStopped, domain.ErrNotRunning},
		{"starting to stopped", PhaseStarting, PhaseStopped, domain.ErrAlreadyRunning},
		{"running to starting", PhaseRunning, PhaseStarting, domain.ErrAlreadyRunning},
		{"stopping to running", PhaseStopping, PhaseRunning, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.phase = tt.from

			err := l.TransitionTo(tt.to, "test")
			if err != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}

			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if l.Phase() != want {
				t.Errorf("phase = %v, want %v", l.Phase(), want)
			}
		})
	}
}

func TestLifecycle_TransitionTo_NotifiesListener(t *testing.T) {
	rec := &phaseRecorder{}
	l := NewLifecycle(&mockLogger{}, rec.listen)

	_ = l.TransitionTo(PhaseStarting, "start")
	_ = l.TransitionTo(PhaseRunning, "loaded")
	_ = l.TransitionTo(PhaseStopped, "invalid")

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].previous != PhaseStarting || events[1].current != PhaseRunning || events[1].reason != "loaded" {
		t.Errorf("event 1 = %+v", events[1])
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		phase     Phase
		wantStart bool
		wantStop  bool
	}{
		{PhaseStopped, true, false},
		{PhaseStarting, false, true},
		{PhaseRunning, false, true},
		{PhaseStopping, false, false},
		{PhaseCrashed, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.phase = tt.phase

			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_CancelStopsWorkers(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.Cancel() // nil cancel is safe

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)

	l.Go(ctx, "queue", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})

	l.Cancel()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}
}

func TestLifecycle_GoFailureCrashes(t *testing.T) {
	rec := &phaseRecorder{}
	l := NewLifecycle(&mockLogger{}, rec.listen)
	_ = l.TransitionTo(PhaseStarting, "test")
	_ = l.TransitionTo(PhaseRunning, "test")

	l.Go(context.Background(), "watcher", func(ctx context.Context) error {
		return errors.New("boom")
	})

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v", err)
	}
	if l.Phase() != PhaseCrashed {
		t.Errorf("phase = %v, want PhaseCrashed", l.Phase())
	}
}

func TestLifecycle_GoFailureStopsSiblings(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	_ = l.TransitionTo(PhaseStarting, "test")
	_ = l.TransitionTo(PhaseRunning, "test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.SetCancel(cancel)

	l.Go(ctx, "queue", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	l.Go(ctx, "watcher", func(ctx context.Context) error {
		return errors.New("watch failed")
	})

	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout() = %v, want the queue to exit", err)
	}
	if l.Phase() != PhaseCrashed {
		t.Errorf("phase = %v, want PhaseCrashed", l.Phase())
	}
}

func TestLifecycle_WaitWithTimeout_Timeout(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	release := make(chan struct{})
	l.Go(context.Background(), "stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	if err := l.WaitWithTimeout(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	close(release)
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.Phase()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(PhaseStarting, "test")
			_ = l.TransitionTo(PhaseRunning, "test")
		}()
	}
	wg.Wait()
}
