package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/fishdiary/pkg/log"
)

// Defaults for the CLI.
const (
	DefaultBackend    = "file"
	DefaultStorageKey = "fishingSpots"
	DefaultListenAddr = "127.0.0.1:8080"
	DefaultLogLevel   = "info"
)

// Config holds CLI configuration for fishdiary.
type Config struct {
	DataDir    string
	Backend    string
	StorageKey string

	Watch         bool
	WatchDebounce time.Duration
	LoadAttempts  int

	LogLevel string

	ListenAddr string
	AuthToken  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		Backend:       DefaultBackend,
		StorageKey:    DefaultStorageKey,
		WatchDebounce: 100 * time.Millisecond,
		LoadAttempts:  3,
		LogLevel:      DefaultLogLevel,
		ListenAddr:    DefaultListenAddr,
	}
}

// DefaultDataDir returns ~/.fishdiary, or "" when the home directory is
// unknown.
func DefaultDataDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".fishdiary")
	}
	return ""
}

// Validate checks the configuration for errors and expands a leading ~ in
// DataDir.
func (c *Config) Validate() error {
	switch c.Backend {
	case "file", "sqlite":
		if c.DataDir == "" {
			return fmt.Errorf("data-dir is required for the %s backend", c.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown backend %q (want file, sqlite or memory)", c.Backend)
	}

	if strings.HasPrefix(c.DataDir, "~/") {
		if h, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(h, c.DataDir[2:])
		}
	}

	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.Watch && c.Backend != "file" {
		return fmt.Errorf("watch requires the file backend")
	}
	if c.WatchDebounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}
	if c.LoadAttempts <= 0 {
		return fmt.Errorf("load attempts must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
