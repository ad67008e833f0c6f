package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir       string `toml:"data_dir"`
	Backend       string `toml:"backend"`
	StorageKey    string `toml:"storage_key"`
	Watch         *bool  `toml:"watch"`
	WatchDebounce string `toml:"watch_debounce"`
	LoadAttempts  int    `toml:"load_attempts"`
	LogLevel      string `toml:"log_level"`
	ListenAddr    string `toml:"listen_addr"`
	AuthToken     string `toml:"auth_token"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.fishdiary/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".fishdiary", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("storage-key", fc.StorageKey, &cfg.StorageKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("auth-token", fc.AuthToken, &cfg.AuthToken)

	if err := s.setDuration("watch-debounce", fc.WatchDebounce, &cfg.WatchDebounce); err != nil {
		return err
	}
	s.setInt("load-attempts", fc.LoadAttempts, &cfg.LoadAttempts)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// WriteFileConfig stores cfg as TOML at path, creating the directory.
func WriteFileConfig(path string, cfg Config) error {
	watch := cfg.Watch
	fc := FileConfig{
		DataDir:       cfg.DataDir,
		Backend:       cfg.Backend,
		StorageKey:    cfg.StorageKey,
		Watch:         &watch,
		WatchDebounce: cfg.WatchDebounce.String(),
		LoadAttempts:  cfg.LoadAttempts,
		LogLevel:      cfg.LogLevel,
		ListenAddr:    cfg.ListenAddr,
	}
	b, err := toml.Marshal(fc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
