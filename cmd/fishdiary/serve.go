package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bft-labs/fishdiary/internal/cliconfig"
	"github.com/bft-labs/fishdiary/internal/httpapi"
	"github.com/bft-labs/fishdiary/internal/ui"
	logAdapter "github.com/bft-labs/fishdiary/pkg/log"
	"github.com/bft-labs/fishdiary/pkg/moon"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the spot list over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup signal handling for graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, err := c.openDiary(ctx, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := d.Close(); err != nil {
					c.log.Warn().Err(err).Msg("close diary")
				}
			}()

			logger := logAdapter.NewZerologAdapterWithLogger(c.log)
			srv := httpapi.New(d, logger, httpapi.Options{AuthToken: c.cfg.AuthToken})
			if c.cfg.AuthToken == "" {
				c.log.Warn().Msg("no auth token configured; the API is open to anyone who can reach it")
			}
			if err := srv.Run(ctx, c.cfg.ListenAddr); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			c.log.Info().Msg("received signal, stopping...")
			return nil
		},
	}
	cmd.Flags().StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "HTTP listen address")
	cmd.Flags().StringVar(&c.cfg.AuthToken, "auth-token", c.cfg.AuthToken, "bearer token required on /api routes")
	return cmd
}

func (c *cli) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit spots in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closer, err := c.tuiLogger()
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer closer.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			d, err := c.openDiary(ctx, logger)
			if err != nil {
				return err
			}
			defer d.Close()

			m := ui.New(ctx, d)
			defer m.Close()

			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return fmt.Errorf("run ui: %w", err)
			}
			return nil
		},
	}
}

func (c *cli) moonCmd() *cobra.Command {
	var (
		date  string
		month string
	)
	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Show the moon phase for a day or a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if month != "" {
				t, err := time.ParseInLocation("2006-01", month, time.Local)
				if err != nil {
					return fmt.Errorf("month must be YYYY-MM: %w", err)
				}
				for _, d := range moon.Month(t.Year(), t.Month(), time.Local) {
					fmt.Fprintf(out, "%s  %s %-16s %3d%%\n", d.Date.Format("Mon Jan 02"), d.Emoji, d.Name, d.Info.Percent())
				}
				return nil
			}

			day := time.Now()
			if date != "" {
				t, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				day = t
			}
			d := moon.ForDay(day)
			fmt.Fprintf(out, "%s %s, %d%% illuminated\n", d.Emoji, d.Name, d.Info.Percent())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&month, "month", "", "month to show, YYYY-MM")
	return cmd
}

func (c *cli) initConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := c.cfgPath
			if path == "" {
				path = cliconfig.DefaultConfigPath()
			}
			if path == "" {
				return fmt.Errorf("no config path: pass --config")
			}
			if cliconfig.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := cliconfig.WriteFileConfig(path, c.cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
