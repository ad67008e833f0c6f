package diary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/bft-labs/fishdiary/internal/adapters/fs"
	"github.com/bft-labs/fishdiary/internal/adapters/memory"
	"github.com/bft-labs/fishdiary/internal/adapters/sqlite"
	"github.com/bft-labs/fishdiary/internal/app"
	"github.com/bft-labs/fishdiary/internal/domain"
	"github.com/bft-labs/fishdiary/internal/ports"
)

// Diary is the shared spot store handed to every screen of the
// application. Use New to create one, then Start before reading or
// writing spots.
type Diary struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	store     Store
	fileStore *fs.KVFileStore
	repo      *app.Repository
	state     *app.State
	ids       *app.IDGenerator
	logger    ports.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Diary in StatusStopped.
// Returns an error if configuration is invalid or the store cannot be opened.
func New(cfg Config, opts ...Option) (*Diary, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.store != nil && cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}
	cfg.SetDefaults()
	if o.store != nil && cfg.Watch {
		return nil, fmt.Errorf("%w: watch is not available for a custom store", domain.ErrInvalidConfig)
	}
	if o.store == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	d := &Diary{
		config: cfg,
		opts:   o,
		logger: o.logger,
	}

	if o.store != nil {
		d.store = o.store
	} else if err := d.openStore(); err != nil {
		return nil, err
	}

	var listener app.PhaseListener
	if o.statusHandler != nil {
		listener = func(previous, current app.Phase, reason string) {
			o.statusHandler(StatusChangeEvent{
				Previous: convertPhase(previous),
				Current:  convertPhase(current),
				Reason:   reason,
			})
		}
	}

	d.lifecycle = app.NewLifecycle(d.logger, listener)
	d.repo = app.NewRepository(d.store, cfg.StorageKey, d.logger)
	d.state = app.NewState(d.repo, d.logger)
	d.ids = app.NewIDGenerator(0, func(id int64) bool {
		_, ok := d.state.Spot(id)
		return ok
	})
	return d, nil
}

func (d *Diary) openStore() error {
	switch d.config.Backend {
	case BackendFile:
		d.fileStore = fs.NewKVFileStore(d.config.DataDir)
		d.store = d.fileStore
	case BackendSQLite:
		s, err := sqlite.Open(filepath.Join(d.config.DataDir, SQLiteFile))
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		d.store = s
	case BackendMemory:
		d.store = memory.NewKVStore()
	}
	return nil
}

// Start runs the mutation queue, loads the stored list and, when
// configured, starts watching the store file.
//
// Corrupt stored data is not fatal: the diary starts with an empty list
// and the *CorruptDataError is returned alongside a running diary. An
// unreadable store stops the diary and returns a *PersistenceError.
func (d *Diary) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := d.reapCrashed(); err != nil {
		return err
	}
	if err := d.lifecycle.TransitionTo(app.PhaseStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.lifecycle.SetCancel(cancel)

	queue, err := d.state.Bind()
	if err != nil {
		cancel()
		_ = d.lifecycle.TransitionTo(app.PhaseCrashed, "queue already bound")
		return err
	}
	d.lifecycle.Go(runCtx, "queue", queue)

	spots, loadErr := d.state.RefreshWithRetry(ctx, d.config.LoadAttempts)
	if loadErr != nil && !errors.Is(loadErr, domain.ErrCorruptData) {
		d.logger.Error("failed to load spots", ports.Err(loadErr))
		cancel()
		_ = d.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
		_ = d.lifecycle.TransitionTo(app.PhaseCrashed, "load failed")
		return loadErr
	}
	d.ids.Observe(domain.MaxID(spots))
	d.logger.Info("spots loaded",
		ports.Int("count", len(spots)),
		ports.Int64("max_id", domain.MaxID(spots)),
		ports.String("backend", string(d.config.Backend)),
	)

	if d.config.Watch && d.fileStore != nil {
		path, err := d.fileStore.Path(d.config.StorageKey)
		if err != nil {
			cancel()
			_ = d.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
			_ = d.lifecycle.TransitionTo(app.PhaseCrashed, "invalid storage key")
			return err
		}
		watcher := fs.NewWatcher(path, d.config.WatchDebounce, d.logger, d.onStoreChanged)
		d.lifecycle.Go(runCtx, "watcher", watcher.Run)
	}

	if err := d.lifecycle.TransitionTo(app.PhaseRunning, "spots loaded"); err != nil {
		return err
	}
	return loadErr
}

func (d *Diary) onStoreChanged(ctx context.Context) {
	spots, err := d.state.Refresh(ctx)
	if err != nil {
		d.logger.Warn("reload after external change failed", ports.Err(err))
		return
	}
	d.ids.Observe(domain.MaxID(spots))
	d.logger.Debug("reloaded after external change", ports.Int("count", len(spots)))
}

// Stop stops the queue and the watcher.
// Returns nil on graceful shutdown, ErrShutdownTimeout if workers hang.
func (d *Diary) Stop() error {
	d.mu.Lock()

	if !d.lifecycle.CanStop() {
		d.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := d.lifecycle.TransitionTo(app.PhaseStopping, "Stop() called"); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	err := d.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	if err != nil {
		_ = d.lifecycle.TransitionTo(app.PhaseCrashed, "shutdown timeout")
	} else {
		_ = d.lifecycle.TransitionTo(app.PhaseStopped, "graceful shutdown")
	}
	return err
}

// reapCrashed waits for the workers left behind by a crash so the queue
// can be bound again. Callers hold d.mu.
func (d *Diary) reapCrashed() error {
	if d.lifecycle.Phase() != app.PhaseCrashed {
		return nil
	}
	d.lifecycle.Cancel()
	return d.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
}

// Close stops the diary if needed and releases the store.
func (d *Diary) Close() error {
	var err error
	if d.lifecycle.CanStop() {
		err = d.Stop()
	} else {
		d.mu.Lock()
		err = d.reapCrashed()
		d.mu.Unlock()
	}
	if c, ok := d.store.(io.Closer); ok && d.opts.store == nil {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Status returns the current runtime status.
// Safe to call concurrently from any goroutine.
func (d *Diary) Status() Status {
	return convertPhase(d.lifecycle.Phase())
}

// Config returns the effective configuration.
func (d *Diary) Config() Config {
	return d.config
}

// Spots returns the latest confirmed list. It never blocks.
func (d *Diary) Spots() []Spot {
	return d.state.Spots()
}

// Spot returns the spot with id.
func (d *Diary) Spot(id int64) (Spot, bool) {
	return d.state.Spot(id)
}

// Upsert validates and saves spot, replacing any spot with the same id.
// A zero id is replaced with a fresh one.
func (d *Diary) Upsert(ctx context.Context, spot Spot) ([]Spot, error) {
	if spot.ID == 0 {
		spot.ID = d.ids.Next()
	} else {
		d.ids.Observe(spot.ID)
	}
	return d.state.Upsert(ctx, spot)
}

// Insert saves spot as a new spot. It fails with ErrExists when a spot
// with the same id is already stored.
func (d *Diary) Insert(ctx context.Context, spot Spot) ([]Spot, error) {
	if spot.ID == 0 {
		spot.ID = d.ids.Next()
	} else {
		d.ids.Observe(spot.ID)
	}
	return d.state.Insert(ctx, spot)
}

// Remove deletes the spot with id. Removing an unknown id succeeds.
func (d *Diary) Remove(ctx context.Context, id int64) ([]Spot, error) {
	return d.state.Remove(ctx, id)
}

// Refresh reloads the list from the store.
func (d *Diary) Refresh(ctx context.Context) ([]Spot, error) {
	spots, err := d.state.Refresh(ctx)
	if err == nil || errors.Is(err, domain.ErrCorruptData) {
		d.ids.Observe(domain.MaxID(spots))
	}
	return spots, err
}

// Subscribe returns the current list and a channel of later lists. Call
// cancel when done to release the subscription.
func (d *Diary) Subscribe() (spots []Spot, updates <-chan []Spot, cancel func()) {
	return d.state.Subscribe()
}

// NewDraft starts an edit session for a new spot at coord.
func (d *Diary) NewDraft(coord Coordinate) *Editor {
	return app.NewDraft(d.state, d.ids, coord)
}

// Edit starts an edit session for the saved spot with id.
func (d *Diary) Edit(id int64) (*Editor, error) {
	spot, ok := d.state.Spot(id)
	if !ok {
		return nil, fmt.Errorf("spot %d: %w", id, domain.ErrNotFound)
	}
	return app.Open(d.state, d.ids, spot), nil
}

// NextID returns a fresh spot id.
func (d *Diary) NextID() int64 {
	return d.ids.Next()
}
