// Package diary provides an embeddable fishing-spot store.
//
// A [Diary] owns the saved spot list, writes every change through to a
// key/value store before exposing it, and shares the confirmed list with
// any number of screens.
//
// # Basic Usage
//
//	d, err := diary.New(diary.Config{DataDir: "/home/me/.fishdiary"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	if err := d.Start(ctx); err != nil && !errors.Is(err, diary.ErrCorruptData) {
//	    log.Fatal(err)
//	}
//
//	ed := d.NewDraft(diary.Coordinate{Latitude: 40, Longitude: -70})
//	_ = ed.SetTitle("Pier")
//	if _, err := ed.Save(ctx); err != nil {
//	    log.Print(err)
//	}
//
// # Sharing the list
//
// Every screen calls [Diary.Subscribe] and renders the snapshot it gets,
// then each list received on the channel. All mutations run one at a time
// on a single queue, and every subscriber sees a confirmed list before the
// next mutation starts. A failed write never reaches subscribers.
//
// # Backends
//
// [BackendFile] stores the list as DataDir/fishingSpots.json and can watch
// it for changes made by other processes. [BackendSQLite] stores it in an
// embedded SQLite database. [BackendMemory] keeps nothing across restarts.
// [WithStore] plugs in any other [Store].
//
// # Errors
//
// Rejected titles return a [*ValidationError], failed store access a
// [*PersistenceError], and undecodable stored data a [*CorruptDataError].
// In every case the previously confirmed list is kept.
package diary
