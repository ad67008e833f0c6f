package diary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/fishdiary/internal/adapters/memory"
)

func newStarted(t *testing.T, cfg Config, opts ...Option) *Diary {
	t.Helper()
	d, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"file without dir", Config{Backend: BackendFile}},
		{"sqlite without dir", Config{Backend: BackendSQLite}},
		{"unknown backend", Config{Backend: "etcd", DataDir: "/tmp"}},
		{"watch on memory", Config{Backend: BackendMemory, Watch: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestDiary_StartStop(t *testing.T) {
	var (
		mu     sync.Mutex
		events []StatusChangeEvent
	)
	handler := func(e StatusChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	d, err := New(Config{Backend: BackendMemory}, WithStatusHandler(handler))
	if err != nil {
		t.Fatal(err)
	}
	if d.Status() != StatusStopped {
		t.Errorf("initial status = %v", d.Status())
	}
	if err := d.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() before Start() = %v, want ErrNotRunning", err)
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if d.Status() != StatusRunning {
		t.Errorf("status = %v, want Running", d.Status())
	}
	if err := d.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if d.Status() != StatusStopped {
		t.Errorf("status = %v, want Stopped", d.Status())
	}
	if _, err := d.Upsert(ctx, Spot{Title: "late"}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Upsert() after Stop() = %v, want ErrNotRunning", err)
	}

	// A stopped diary can be started again.
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	_ = d.Stop()

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusStarting, StatusRunning, StatusStopping, StatusStopped}
	for i, s := range want {
		if events[i].Current != s {
			t.Errorf("event %d = %v, want %v", i, events[i].Current, s)
		}
	}
}

func TestDiary_FileBackendPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	d := newStarted(t, Config{DataDir: dir})
	spots, err := d.Upsert(ctx, Spot{ID: 1, Title: "Pier", Coordinate: Coordinate{Latitude: 40, Longitude: -70}})
	if err != nil || len(spots) != 1 {
		t.Fatalf("Upsert() = %v, %v", spots, err)
	}
	_ = d.Close()

	if _, err := os.Stat(filepath.Join(dir, "fishingSpots.json")); err != nil {
		t.Fatalf("store file missing: %v", err)
	}

	reopened := newStarted(t, Config{DataDir: dir})
	got := reopened.Spots()
	if len(got) != 1 || got[0].Title != "Pier" || got[0].Coordinate.Longitude != -70 {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestDiary_SQLiteBackendPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	d := newStarted(t, Config{DataDir: dir, Backend: BackendSQLite})
	if _, err := d.Upsert(ctx, Spot{ID: 7, Title: "Lake", Coordinate: Coordinate{Latitude: 1, Longitude: 2}}); err != nil {
		t.Fatal(err)
	}
	_ = d.Close()

	reopened := newStarted(t, Config{DataDir: dir, Backend: BackendSQLite})
	if got, ok := reopened.Spot(7); !ok || got.Title != "Lake" {
		t.Errorf("Spot(7) = %+v, %v", got, ok)
	}
}

func TestDiary_CorruptStartIsNotFatal(t *testing.T) {
	store := memory.NewKVStore()
	_ = store.Set(context.Background(), "fishingSpots", "{not json")

	d, err := New(Config{}, WithStore(store))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	err = d.Start(context.Background())
	var corrupt *CorruptDataError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Start() error = %v, want CorruptDataError", err)
	}
	if d.Status() != StatusRunning {
		t.Errorf("status = %v, want Running", d.Status())
	}
	if len(d.Spots()) != 0 {
		t.Errorf("Spots() = %+v, want empty", d.Spots())
	}

	if _, err := d.Upsert(context.Background(), Spot{Title: "fresh", Coordinate: Coordinate{}}); err != nil {
		t.Errorf("Upsert() after corrupt start = %v", err)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("io error")
}
func (failingStore) Set(context.Context, string, string) error { return errors.New("io error") }

func TestDiary_UnreadableStoreCrashes(t *testing.T) {
	d, err := New(Config{LoadAttempts: 1}, WithStore(failingStore{}))
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Start(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("Start() error = %v, want ErrPersistence", err)
	}
	if d.Status() != StatusCrashed {
		t.Errorf("status = %v, want Crashed", d.Status())
	}
}

func TestDiary_WorkerFailureStopsQueue(t *testing.T) {
	d := newStarted(t, Config{Backend: BackendMemory})
	ctx := context.Background()

	d.lifecycle.Go(ctx, "watcher", func(context.Context) error {
		return errors.New("watch failed")
	})

	deadline := time.Now().Add(2 * time.Second)
	for d.Status() != StatusCrashed || d.state.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("status = %v, queue running = %v", d.Status(), d.state.Running())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := d.Upsert(ctx, Spot{Title: "lost"}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Upsert() after crash = %v, want ErrNotRunning", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() after crash = %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() after crash = %v", err)
	}
	if d.Status() != StatusRunning {
		t.Errorf("status = %v, want Running", d.Status())
	}
	if spots, err := d.Upsert(ctx, Spot{Title: "back"}); err != nil || len(spots) != 1 {
		t.Errorf("Upsert() after restart = %v, %v", spots, err)
	}
}

func TestDiary_StartAfterCrashWithoutClose(t *testing.T) {
	d := newStarted(t, Config{Backend: BackendMemory})
	ctx := context.Background()

	d.lifecycle.Go(ctx, "watcher", func(context.Context) error {
		return errors.New("watch failed")
	})

	deadline := time.Now().Add(2 * time.Second)
	for d.Status() != StatusCrashed {
		if time.Now().After(deadline) {
			t.Fatalf("status = %v, want Crashed", d.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() after crash = %v", err)
	}
	if _, err := d.Upsert(ctx, Spot{Title: "back"}); err != nil {
		t.Errorf("Upsert() after restart = %v", err)
	}
}

func TestDiary_UpsertAssignsID(t *testing.T) {
	d := newStarted(t, Config{Backend: BackendMemory})
	ctx := context.Background()

	a, err := d.Upsert(ctx, Spot{Title: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Upsert(ctx, Spot{Title: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if a[0].ID == 0 || b[1].ID <= a[0].ID {
		t.Errorf("ids = %d, %d", a[0].ID, b[1].ID)
	}
}

func TestDiary_IDsAboveLoadedSpots(t *testing.T) {
	store := memory.NewKVStore()
	future := time.Now().Add(24 * time.Hour).UnixMilli()
	blob := `[{"id":` + itoa(future) + `,"coordinate":{"latitude":1,"longitude":2},"title":"A"}]`
	_ = store.Set(context.Background(), "fishingSpots", blob)

	d := newStarted(t, Config{}, WithStore(store))
	if id := d.NextID(); id <= future {
		t.Errorf("NextID() = %d, want > %d", id, future)
	}
}

func TestDiary_Edit(t *testing.T) {
	d := newStarted(t, Config{Backend: BackendMemory})
	ctx := context.Background()

	if _, err := d.Edit(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Edit(42) = %v, want ErrNotFound", err)
	}

	spots, err := d.Upsert(ctx, Spot{ID: 42, Title: "Bay", Coordinate: Coordinate{Latitude: 3, Longitude: 4}})
	if err != nil || len(spots) != 1 {
		t.Fatal(err)
	}

	ed, err := d.Edit(42)
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	_ = ed.SetDescription("sandy bottom")
	if _, err := ed.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.Spot(42); got.Description != "sandy bottom" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestDiary_WatchReloadsExternalChanges(t *testing.T) {
	dir := t.TempDir()
	d := newStarted(t, Config{DataDir: dir, Watch: true, WatchDebounce: 20 * time.Millisecond})

	_, updates, cancel := d.Subscribe()
	defer cancel()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)

	blob := `[{"id":5,"coordinate":{"latitude":1,"longitude":2},"title":"From elsewhere"}]`
	tmp := filepath.Join(dir, "external.tmp")
	if err := os.WriteFile(tmp, []byte(blob), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, "fishingSpots.json")); err != nil {
		t.Fatal(err)
	}

	select {
	case spots := <-updates:
		if len(spots) != 1 || spots[0].Title != "From elsewhere" {
			t.Errorf("update = %+v", spots)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external change not picked up")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
