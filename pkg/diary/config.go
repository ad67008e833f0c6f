package diary

import (
	"fmt"
	"time"

	"github.com/bft-labs/fishdiary/internal/app"
	"github.com/bft-labs/fishdiary/internal/domain"
)

// Backend selects the key/value store implementation.
type Backend string

const (
	// BackendFile keeps one JSON file per key in DataDir.
	BackendFile Backend = "file"
	// BackendSQLite keeps keys in DataDir/fishdiary.db.
	BackendSQLite Backend = "sqlite"
	// BackendMemory keeps keys in process memory only.
	BackendMemory Backend = "memory"
)

// SQLiteFile is the database file name used by BackendSQLite.
const SQLiteFile = "fishdiary.db"

// Config controls where a Diary keeps its spots.
type Config struct {
	// DataDir holds the store files. Required for file and sqlite backends.
	DataDir string

	// Backend defaults to BackendFile.
	Backend Backend

	// StorageKey defaults to "fishingSpots".
	StorageKey string

	// Watch reloads the list when another process rewrites the store file.
	// Only the file backend supports watching.
	Watch bool

	// WatchDebounce is the quiet period before a reload. Default: 100ms
	WatchDebounce time.Duration

	// LoadAttempts bounds the startup read retries. Default: 3
	LoadAttempts int
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.StorageKey == "" {
		c.StorageKey = app.DefaultStorageKey
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 100 * time.Millisecond
	}
	if c.LoadAttempts <= 0 {
		c.LoadAttempts = 3
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("%w: data dir is required for the %s backend", domain.ErrInvalidConfig, c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", domain.ErrInvalidConfig, c.Backend)
	}
	if c.Watch && c.Backend != BackendFile {
		return fmt.Errorf("%w: watch requires the file backend", domain.ErrInvalidConfig)
	}
	return nil
}
