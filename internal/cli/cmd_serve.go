// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/daemon"
	"github.com/ManuGH/zi2anki/internal/health"
	zlog "github.com/ManuGH/zi2anki/internal/log"
	"github.com/spf13/cobra"
)

func newServeCommand(build BuildInfo) *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the zi2anki daemon with HTTP API and CSV watching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), build, configPath, listen)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	cmd.Flags().StringVar(&listen, "listen", "", "API listen address (overrides config)")
	return cmd
}

func runServe(parent context.Context, build BuildInfo, configPath, listen string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Safe defaults until the configured level is known.
	zlog.Configure(zlog.Config{Level: "info", Service: "zi2anki"})
	logger := zlog.WithComponent("daemon")

	// Config path: explicit via --config, otherwise auto-load
	// ${ZI2ANKI_DATA_DIR}/config.yaml if it exists.
	explicitPath := strings.TrimSpace(configPath)
	effectivePath := explicitPath
	if effectivePath == "" {
		dataDir := strings.TrimSpace(config.ParseString("ZI2ANKI_DATA_DIR", "./data"))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectivePath = autoPath
		}
	}

	loader := config.NewLoader(effectivePath, build.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr := strings.TrimSpace(listen); addr != "" {
		cfg.API.Listen = addr
	}
	zlog.SetLevel(cfg.LogLevel)

	switch {
	case explicitPath != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", explicitPath).
			Msg("loaded configuration from file")
	case effectivePath != "":
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file(auto)").
			Str("path", effectivePath).
			Msg("loaded configuration from file")
	default:
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}

	logger.Info().
		Str("event", "startup").
		Str("version", build.Version).
		Str("commit", build.Commit).
		Str("build_date", build.Date).
		Str("addr", cfg.API.Listen).
		Msg("starting zi2anki")

	// Hot reload support: watch the config file and honor SIGHUP.
	holder := config.NewConfigHolder(cfg, config.NewLoader(effectivePath, build.Version), effectivePath)

	app, err := daemon.Bootstrap(ctx, cfg, holder)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	logger.Info().Msg("server exiting")
	return nil
}
