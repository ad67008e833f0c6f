package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"FISHDIARY_DATA_DIR":       "/env/data",
				"FISHDIARY_BACKEND":        "memory",
				"FISHDIARY_STORAGE_KEY":    "env-spots",
				"FISHDIARY_WATCH":          "1",
				"FISHDIARY_WATCH_DEBOUNCE": "2s",
				"FISHDIARY_LOAD_ATTEMPTS":  "7",
				"FISHDIARY_LOG_LEVEL":      "error",
				"FISHDIARY_LISTEN_ADDR":    ":7000",
				"FISHDIARY_AUTH_TOKEN":     "env-token",
			},
			changed: map[string]bool{},
			expected: Config{
				DataDir:       "/env/data",
				Backend:       "memory",
				StorageKey:    "env-spots",
				Watch:         true,
				WatchDebounce: 2 * time.Second,
				LoadAttempts:  7,
				LogLevel:      "error",
				ListenAddr:    ":7000",
				AuthToken:     "env-token",
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"FISHDIARY_DATA_DIR": "/env/data",
				"FISHDIARY_BACKEND":  "sqlite",
			},
			changed:  map[string]bool{"data-dir": true},
			initial:  Config{DataDir: "/flag/data"},
			expected: Config{DataDir: "/flag/data", Backend: "sqlite"},
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"FISHDIARY_WATCH": "false"},
			changed:  map[string]bool{},
			initial:  Config{Watch: true},
			expected: Config{Watch: false},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"FISHDIARY_WATCH_DEBOUNCE": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"FISHDIARY_LOAD_ATTEMPTS": "many"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		DataDir:  "/file/data",
		Backend:  "sqlite",
		LogLevel: "debug",
		Watch:    &trueVal,
	}

	t.Setenv("FISHDIARY_DATA_DIR", "/env/data")
	t.Setenv("FISHDIARY_BACKEND", "file")

	changed := map[string]bool{
		"data-dir": true,
	}
	cfg := Config{
		DataDir: "/cli/data",
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.DataDir != "/cli/data" {
		t.Errorf("DataDir = %v, want /cli/data (CLI should win)", cfg.DataDir)
	}
	if cfg.Backend != "file" {
		t.Errorf("Backend = %v, want file (env should override file)", cfg.Backend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug (file should set)", cfg.LogLevel)
	}
	if !cfg.Watch {
		t.Error("Watch = false, want true (file should set)")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")

	if err := os.WriteFile(local, []byte("FISHDIARY_BACKEND=memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shared, []byte("FISHDIARY_BACKEND=sqlite\nFISHDIARY_LOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Register cleanup for variables the loader will set.
	t.Setenv("FISHDIARY_BACKEND", "")
	t.Setenv("FISHDIARY_LOG_LEVEL", "")
	os.Unsetenv("FISHDIARY_BACKEND")
	os.Unsetenv("FISHDIARY_LOG_LEVEL")

	if err := LoadDotEnv(local, shared, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("FISHDIARY_BACKEND"); got != "memory" {
		t.Errorf("FISHDIARY_BACKEND = %q, want memory (first file wins)", got)
	}
	if got := os.Getenv("FISHDIARY_LOG_LEVEL"); got != "warn" {
		t.Errorf("FISHDIARY_LOG_LEVEL = %q, want warn", got)
	}
}

func TestLoadDotEnv_KeepsRealEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FISHDIARY_LISTEN_ADDR=:1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FISHDIARY_LISTEN_ADDR", ":2")

	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("FISHDIARY_LISTEN_ADDR"); got != ":2" {
		t.Errorf("FISHDIARY_LISTEN_ADDR = %q, want :2", got)
	}
}
