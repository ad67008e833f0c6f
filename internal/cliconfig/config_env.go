package cliconfig

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "FISHDIARY_"

// ApplyEnvConfig applies configuration from environment variables (FISHDIARY_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv(EnvPrefix+"DATA_DIR"), &cfg.DataDir)
	s.setString("backend", os.Getenv(EnvPrefix+"BACKEND"), &cfg.Backend)
	s.setString("storage-key", os.Getenv(EnvPrefix+"STORAGE_KEY"), &cfg.StorageKey)
	s.setString("log-level", os.Getenv(EnvPrefix+"LOG_LEVEL"), &cfg.LogLevel)
	s.setString("listen", os.Getenv(EnvPrefix+"LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("auth-token", os.Getenv(EnvPrefix+"AUTH_TOKEN"), &cfg.AuthToken)

	if err := s.setDuration("watch-debounce", os.Getenv(EnvPrefix+"WATCH_DEBOUNCE"), &cfg.WatchDebounce); err != nil {
		return err
	}
	if err := s.setIntFromString("load-attempts", os.Getenv(EnvPrefix+"LOAD_ATTEMPTS"), &cfg.LoadAttempts); err != nil {
		return err
	}
	s.setBoolFromString("watch", os.Getenv(EnvPrefix+"WATCH"), &cfg.Watch)

	return nil
}

// LoadDotEnv loads variables from the given files into the process
// environment. Variables already set are kept, so earlier files win over
// later ones and the real environment wins over all. Missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return err
	}
	return nil
}
