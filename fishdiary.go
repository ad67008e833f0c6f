// Package fishdiary opens a ready-to-use fishing spot diary.
//
// Example usage:
//
//	cfg := fishdiary.DefaultConfig()
//	d, err := fishdiary.Open(context.Background(), cfg)
//	if err != nil && !errors.Is(err, diary.ErrCorruptData) {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//	for _, s := range d.Spots() {
//	    fmt.Println(s.Title)
//	}
package fishdiary

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bft-labs/fishdiary/internal/cliconfig"
	"github.com/bft-labs/fishdiary/pkg/diary"
)

// Config holds the diary configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = diary.Config

// DefaultConfig returns a file-backed Config rooted at ~/.fishdiary.
func DefaultConfig() Config {
	cfg := Config{DataDir: cliconfig.DefaultDataDir()}
	cfg.SetDefaults()
	return cfg
}

// Open creates and starts a diary.
//
// When the stored list is corrupt the running diary is returned together
// with the *diary.CorruptDataError so the caller can warn the user. Any
// other error returns a nil diary.
func Open(ctx context.Context, cfg Config, opts ...diary.Option) (*diary.Diary, error) {
	d, err := diary.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := d.Start(ctx); err != nil {
		if errors.Is(err, diary.ErrCorruptData) {
			return d, err
		}
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Logger returns the console logger used by the command line tool.
func Logger(level string) zerolog.Logger {
	return cliconfig.Logger(level)
}
