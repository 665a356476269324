// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/zi2anki/internal/audit"
	"github.com/ManuGH/zi2anki/internal/config"
)

// App owns the long-lived runtime lifecycle (build runner, CSV watcher,
// config reload wiring) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	runner       *Runner
	cfgHolder    *config.ConfigHolder
	cfg          config.AppConfig
	reloadSignal os.Signal
	audit        *audit.Logger
}

// NewApp creates a new App orchestrator. cfgHolder may be nil when the
// configuration is fixed for the process lifetime.
func NewApp(logger zerolog.Logger, manager Manager, runner *Runner, cfgHolder *config.ConfigHolder, cfg config.AppConfig) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		runner:       runner,
		cfgHolder:    cfgHolder,
		cfg:          cfg,
		reloadSignal: syscall.SIGHUP,
		audit:        audit.NewLogger(),
	}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.BuildOnStart && a.runner != nil {
		a.runner.TriggerAsync("startup")
	}

	// Config watcher is best-effort: startup should not fail if the
	// watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().
				Err(err).
				Str("event", "config.watcher_start_failed").
				Msg("failed to start config watcher")
		}
	}

	// Reload-during-runtime wiring: swap the runner's build settings on
	// every config change and rebuild so the deck reflects them.
	if a.cfgHolder != nil && a.runner != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case newCfg := <-applyCh:
					a.runner.UpdateConfig(newCfg)
					if !a.runner.TriggerAsync("config-change") {
						a.logger.Warn().
							Str("event", "build.reload_skipped").
							Msg("config applied, rebuild deferred: build already running")
					}
				}
			}
		})
	}

	// CSV watcher is best-effort: a filesystem without inotify support
	// should not keep the daemon from serving the last built deck.
	if a.cfg.Watch && a.runner != nil {
		watcher, err := NewCSVWatcher(
			[]string{a.cfg.CharsCSV, a.cfg.WordsCSV},
			func(reason string) { a.runner.TriggerAsync(reason) },
		)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("event", "watcher.start_failed").
				Msg("failed to set up vocabulary watcher")
		} else {
			g.Go(func() error {
				if err := watcher.Run(ctx); err != nil {
					a.logger.Warn().
						Err(err).
						Str("event", "watcher.failed").
						Msg("vocabulary watcher stopped with error")
				}
				return nil
			})
		}
	}

	// SIGHUP trigger for manual reload.
	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(context.Background()); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
						a.audit.ConfigReload(a.reloadSignal.String(), "failure", map[string]string{"error": err.Error()})
					} else {
						a.audit.ConfigReload(a.reloadSignal.String(), "success", nil)
					}
				}
			}
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
