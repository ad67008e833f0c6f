package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/fishdiary"
	"github.com/bft-labs/fishdiary/internal/cliconfig"
	"github.com/bft-labs/fishdiary/pkg/diary"
	logAdapter "github.com/bft-labs/fishdiary/pkg/log"
)

const helpDescription = `
Keep a diary of your fishing spots: where they are, what you caught, and
the photos to prove it.

Highlights:
  - One shared spot list for the terminal UI, the CLI and the HTTP API.
  - Stores spots as a JSON list in a file, SQLite or memory.
  - Reloads automatically when another process rewrites the file (--watch).
  - Moon phase calendar for planning the next trip.
`

var exampleUsage = strings.TrimSpace(`
  fishdiary add --lat 59.3293 --lng 18.0686 --title "Pier"
  fishdiary list --near 59.33,18.07 --radius 5000
  fishdiary serve --listen :8080 --watch
  fishdiary tui
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the resolved configuration shared by every subcommand.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	c.log = fishdiary.Logger(c.cfg.LogLevel)

	root := &cobra.Command{
		Use:               "fishdiary",
		Short:             "A diary of fishing spots",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	// Flags
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.fishdiary/config.toml)")
	pf.StringVar(&c.cfg.DataDir, "data-dir", c.cfg.DataDir, "directory holding the spot store")
	pf.StringVar(&c.cfg.Backend, "backend", c.cfg.Backend, "storage backend: file, sqlite or memory")
	pf.StringVar(&c.cfg.StorageKey, "storage-key", c.cfg.StorageKey, "key the spot list is stored under")
	pf.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.IntVar(&c.cfg.LoadAttempts, "load-attempts", c.cfg.LoadAttempts, "attempts to read an unavailable store at startup")
	pf.BoolVar(&c.cfg.Watch, "watch", c.cfg.Watch, "reload when another process rewrites the store file")
	pf.DurationVar(&c.cfg.WatchDebounce, "watch-debounce", c.cfg.WatchDebounce, "quiet period before reloading a changed file")
	if err := pf.MarkHidden("storage-key"); err != nil {
		c.log.Info().Err(err).Msg("failed to hide storage-key flag")
	}

	root.AddCommand(
		c.listCmd(),
		c.showCmd(),
		c.addCmd(),
		c.editCmd(),
		c.removeCmd(),
		c.refreshCmd(),
		c.moonCmd(),
		c.serveCmd(),
		c.tuiCmd(),
		c.initConfigCmd(),
	)

	if err := root.Execute(); err != nil {
		c.log.Error().Err(err).Msg("fishdiary")
		os.Exit(1)
	}
}

// loadConfig resolves configuration with precedence flags > environment
// (including .env files) > config file > defaults.
func (c *cli) loadConfig(cmd *cobra.Command, _ []string) error {
	if err := cliconfig.LoadDotEnv(".env.local", ".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	c.log = cliconfig.Logger(c.cfg.LogLevel)

	logCfg := c.cfg
	if len(logCfg.AuthToken) > 0 {
		logCfg.AuthToken = "*****"
	}
	c.log.Debug().Interface("config", logCfg).Msg("configuration")
	return nil
}

func (c *cli) diaryConfig() diary.Config {
	return diary.Config{
		DataDir:       c.cfg.DataDir,
		Backend:       diary.Backend(c.cfg.Backend),
		StorageKey:    c.cfg.StorageKey,
		Watch:         c.cfg.Watch,
		WatchDebounce: c.cfg.WatchDebounce,
		LoadAttempts:  c.cfg.LoadAttempts,
	}
}

// openDiary creates and starts a diary logging through logger. Corrupt
// stored data is reported and the diary continues with an empty list.
func (c *cli) openDiary(ctx context.Context, logger zerolog.Logger) (*diary.Diary, error) {
	d, err := fishdiary.Open(ctx, c.diaryConfig(),
		diary.WithLogger(logAdapter.NewZerologAdapterWithLogger(logger)),
	)
	if err != nil && !errors.Is(err, diary.ErrCorruptData) {
		return nil, fmt.Errorf("open diary: %w", err)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("stored spots were unreadable; starting with an empty list")
	}
	return d, nil
}

// tuiLogger writes to fishdiary.log in the data dir so log lines do not
// tear the full-screen UI. The memory backend logs nowhere.
func (c *cli) tuiLogger() (zerolog.Logger, io.Closer, error) {
	if c.cfg.Backend == string(diary.BackendMemory) || c.cfg.DataDir == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}
	if err := os.MkdirAll(c.cfg.DataDir, 0o700); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(filepath.Join(c.cfg.DataDir, "fishdiary.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	lvl, _ := logAdapter.ParseLevel(c.cfg.LogLevel)
	return zerolog.New(f).Level(lvl).With().Timestamp().Logger(), f, nil
}
