// SPDX-License-Identifier: MIT

package daemon

import (
	"fmt"
	"path/filepath"
	"time"

	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	zlog "github.com/ManuGH/zi2anki/internal/log"
)

const watchDebounce = 500 * time.Millisecond

// CSVWatcher watches the vocabulary CSV files and fires onChange when
// one of them is written. Events are debounced so an editor that saves
// in several steps triggers one rebuild, not five.
type CSVWatcher struct {
	files    map[string]struct{} // absolute paths to watch for
	dirs     []string            // parent directories added to the watcher
	onChange func(reason string)
	debounce time.Duration
	logger   zerolog.Logger
}

// NewCSVWatcher creates a watcher for the given files. The parent
// directories are watched instead of the files themselves: editors that
// save via rename would otherwise silently detach the watch.
func NewCSVWatcher(files []string, onChange func(reason string)) (*CSVWatcher, error) {
	w := &CSVWatcher{
		files:    make(map[string]struct{}, len(files)),
		onChange: onChange,
		debounce: watchDebounce,
		logger:   zlog.WithComponent("watcher"),
	}

	seen := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve watch path %s: %w", f, err)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}

	return w, nil
}

// Run watches until ctx is cancelled. It blocks, so callers start it on
// its own goroutine.
func (w *CSVWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.logger.Info().
		Str("event", "watcher.started").
		Strs("dirs", w.dirs).
		Msg("watching vocabulary files for changes")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("event", "watcher.stopped").Msg("vocabulary watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.files[abs]; !watched {
				continue
			}

			// Write covers in-place saves, Create and Rename cover the
			// write-to-temp-then-rename strategy.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("event", "watcher.file_changed").
					Str(zlog.FieldPath, abs).
					Str("op", event.Op.String()).
					Msg("vocabulary file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(w.debounce, func() {
					w.onChange("csv-change")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str("event", "watcher.error").
				Msg("vocabulary watcher error")
		}
	}
}
