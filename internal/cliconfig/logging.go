package cliconfig

import (
	"github.com/rs/zerolog"

	"github.com/bft-labs/fishdiary/pkg/log"
)

// Logger returns the CLI console logger at the configured level. An
// unparseable level falls back to info.
func Logger(level string) zerolog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return log.NewConsoleLogger(lvl)
}
