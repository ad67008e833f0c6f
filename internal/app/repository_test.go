package app

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bft-labs/fishdiary/internal/domain"
)

func pier() domain.Spot {
	return domain.Spot{
		ID:         1,
		Coordinate: domain.Coordinate{Latitude: 40.0, Longitude: -70.0},
		Title:      "Pier",
		Images:     []domain.Image{},
	}
}

func spot(id int64, title string) domain.Spot {
	return domain.Spot{
		ID:         id,
		Coordinate: domain.Coordinate{Latitude: float64(id), Longitude: -float64(id)},
		Title:      title,
		Images:     []domain.Image{},
	}
}

func newTestRepository(t *testing.T) (*Repository, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewRepository(store, "", &mockLogger{}), store
}

// assertPersisted checks that the stored blob decodes to the in-memory list.
func assertPersisted(t *testing.T, repo *Repository, store *fakeStore) {
	t.Helper()
	stored, err := DecodeSpots(store.raw(repo.Key()))
	if err != nil {
		t.Fatalf("stored blob does not decode: %v", err)
	}
	if !reflect.DeepEqual(stored, repo.List()) {
		t.Errorf("stored = %+v, list = %+v", stored, repo.List())
	}
}

func TestRepository_PierScenario(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	got, err := repo.Upsert(ctx, pier())
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !reflect.DeepEqual(got, []domain.Spot{pier()}) {
		t.Errorf("Upsert() = %+v, want [Pier]", got)
	}
	if !reflect.DeepEqual(repo.List(), []domain.Spot{pier()}) {
		t.Errorf("List() = %+v, want [Pier]", repo.List())
	}
	assertPersisted(t, repo, store)

	got, err = repo.Remove(ctx, 1)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if len(got) != 0 || len(repo.List()) != 0 {
		t.Errorf("after Remove() list = %+v, want empty", repo.List())
	}
	if store.raw(repo.Key()) != "[]" {
		t.Errorf("stored = %q, want []", store.raw(repo.Key()))
	}
}

func TestRepository_UpsertRoundTrip(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	s := spot(5, "Rocks")
	s.Description = "low tide only"
	s.Images = []domain.Image{{ID: 1, URI: "file:///a.jpg"}, {ID: 2, URI: "file:///b.jpg"}}

	if _, err := repo.Upsert(ctx, spot(1, "Pier")); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Upsert(ctx, s); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var matches []domain.Spot
	for _, got := range repo.List() {
		if got.ID == s.ID {
			matches = append(matches, got)
		}
	}
	if len(matches) != 1 {
		t.Fatalf("found %d records with id %d, want 1", len(matches), s.ID)
	}
	if !reflect.DeepEqual(matches[0], s) {
		t.Errorf("record = %+v, want %+v", matches[0], s)
	}
	assertPersisted(t, repo, store)
}

func TestRepository_ReplaceNotDuplicate(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	for _, s := range []domain.Spot{spot(1, "A"), spot(2, "B"), spot(3, "C")} {
		if _, err := repo.Upsert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	edited := spot(2, "B renamed")
	edited.Description = "moved"
	got, err := repo.Upsert(ctx, edited)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if !reflect.DeepEqual(got[1], edited) {
		t.Errorf("record at index 1 = %+v, want %+v", got[1], edited)
	}
	if got[0].ID != 1 || got[2].ID != 3 {
		t.Errorf("order changed: %d, %d, %d", got[0].ID, got[1].ID, got[2].ID)
	}
	assertPersisted(t, repo, store)
}

func TestRepository_ValidationGate(t *testing.T) {
	for _, title := range []string{"", " ", "\t\n"} {
		t.Run(title, func(t *testing.T) {
			repo, store := newTestRepository(t)
			ctx := context.Background()
			if _, err := repo.Upsert(ctx, spot(1, "Keep")); err != nil {
				t.Fatal(err)
			}
			before := repo.List()
			writes := store.setCount()

			got, err := repo.Upsert(ctx, spot(2, title))

			var verr *domain.ValidationError
			if !errors.As(err, &verr) || !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Upsert() error = %v, want ValidationError", err)
			}
			if verr.Field != "title" {
				t.Errorf("Field = %q, want title", verr.Field)
			}
			if !reflect.DeepEqual(got, before) || !reflect.DeepEqual(repo.List(), before) {
				t.Errorf("list changed after rejected upsert")
			}
			if store.setCount() != writes {
				t.Errorf("rejected upsert wrote to the store")
			}
		})
	}
}

func TestRepository_IdempotentRemove(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	for _, s := range []domain.Spot{spot(1, "A"), spot(2, "B")} {
		if _, err := repo.Upsert(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	first, err := repo.Remove(ctx, 1)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	writes := store.setCount()

	second, err := repo.Remove(ctx, 1)
	if err != nil {
		t.Fatalf("second Remove() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second Remove() = %+v, want %+v", second, first)
	}
	if store.setCount() != writes+1 {
		t.Errorf("writes = %d, want exactly one more", store.setCount()-writes)
	}
	assertPersisted(t, repo, store)
}

func TestRepository_WriteFailureKeepsList(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, spot(1, "A")); err != nil {
		t.Fatal(err)
	}
	before := repo.List()
	blob := store.raw(repo.Key())
	store.setFailures(false, true)

	tests := []struct {
		name string
		op   func() ([]domain.Spot, error)
	}{
		{"upsert", func() ([]domain.Spot, error) { return repo.Upsert(ctx, spot(2, "B")) }},
		{"remove", func() ([]domain.Spot, error) { return repo.Remove(ctx, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()

			var perr *domain.PersistenceError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want PersistenceError", err)
			}
			if perr.Op != "set" || !errors.Is(err, errDiskFull) || !errors.Is(err, domain.ErrPersistence) {
				t.Errorf("error = %#v", perr)
			}
			if !reflect.DeepEqual(got, before) || !reflect.DeepEqual(repo.List(), before) {
				t.Errorf("list changed after failed write")
			}
			if store.raw(repo.Key()) != blob {
				t.Errorf("stored blob changed after failed write")
			}
		})
	}
}

func TestRepository_Load(t *testing.T) {
	tests := []struct {
		name    string
		stored  *string
		wantLen int
		wantErr error
	}{
		{"absent", nil, 0, nil},
		{"valid", strPtr(`[{"id":1,"coordinate":{"latitude":1,"longitude":2},"title":"A"},{"id":2,"coordinate":{"latitude":3,"longitude":4},"title":"B"}]`), 2, nil},
		{"corrupt", strPtr(`{{{`), 0, domain.ErrCorruptData},
		{"wrong shape", strPtr(`{"spots":[]}`), 0, domain.ErrCorruptData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store := newTestRepository(t)
			ctx := context.Background()
			if _, err := repo.Upsert(ctx, spot(9, "stale")); err != nil {
				t.Fatal(err)
			}
			if tt.stored != nil {
				store.put(repo.Key(), *tt.stored)
			} else {
				store.values = map[string]string{}
			}

			got, err := repo.Load(ctx)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if got == nil {
				t.Fatal("Load() returned nil list")
			}
			if len(got) != tt.wantLen || len(repo.List()) != tt.wantLen {
				t.Errorf("len = %d, List() len = %d, want %d", len(got), len(repo.List()), tt.wantLen)
			}
		})
	}
}

func TestRepository_LoadReadFailureKeepsList(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, spot(1, "A")); err != nil {
		t.Fatal(err)
	}
	store.setFailures(true, false)

	got, err := repo.Load(ctx)

	var perr *domain.PersistenceError
	if !errors.As(err, &perr) || perr.Op != "get" {
		t.Fatalf("Load() error = %v, want get PersistenceError", err)
	}
	if len(got) != 1 || len(repo.List()) != 1 {
		t.Errorf("list = %+v, want unchanged", repo.List())
	}
}

func TestRepository_PreservesUnknownFieldsOfSiblings(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()
	store.put(DefaultStorageKey, `[{"id":1,"coordinate":{"latitude":1,"longitude":2},"title":"A","description":"","images":[],"weather":{"wind":"NW"}}]`)

	if _, err := repo.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Upsert(ctx, spot(2, "B")); err != nil {
		t.Fatal(err)
	}

	stored, err := DecodeSpots(store.raw(DefaultStorageKey))
	if err != nil {
		t.Fatal(err)
	}
	if string(stored[0].Extra["weather"]) != `{"wind":"NW"}` {
		t.Errorf("weather = %s, want preserved", stored[0].Extra["weather"])
	}
}

func TestRepository_ListIsACopy(t *testing.T) {
	repo, _ := newTestRepository(t)
	s := spot(1, "A")
	s.Images = []domain.Image{{ID: 1, URI: "a"}}
	if _, err := repo.Upsert(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	list := repo.List()
	list[0].Title = "changed"
	list[0].Images[0].URI = "changed"

	again := repo.List()
	if again[0].Title != "A" || again[0].Images[0].URI != "a" {
		t.Errorf("List() exposes internal state: %+v", again[0])
	}
}

func TestRepository_MaxID(t *testing.T) {
	repo, _ := newTestRepository(t)
	if repo.MaxID() != 0 {
		t.Errorf("MaxID() on empty = %d", repo.MaxID())
	}
	for _, id := range []int64{3, 17, 5} {
		if _, err := repo.Upsert(context.Background(), spot(id, "x")); err != nil {
			t.Fatal(err)
		}
	}
	if repo.MaxID() != 17 {
		t.Errorf("MaxID() = %d, want 17", repo.MaxID())
	}
}

func strPtr(s string) *string { return &s }
