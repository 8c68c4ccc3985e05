package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay debounces the bursts of events that editors emit when they
// save a file in several steps.
const reloadDelay = 500 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk.
type Watcher struct {
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
	path    string
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the containing directory; editors that save via rename-and-replace
	// would otherwise detach the watch from the file.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		logger:  logger.With().Str("component", "config-watcher").Logger(),
		watcher: fsw,
		path:    path,
	}, nil
}

// Watch starts watching in the background and invokes reloadFn with each
// successfully reloaded configuration. Files that fail to load or validate
// are logged and skipped.
func (w *Watcher) Watch(ctx context.Context, reloadFn func(*Config)) {
	go w.processEvents(ctx, reloadFn)

	w.logger.Info().Str("path", w.path).Msg("Started watching configuration")
}

// processEvents processes file system events and triggers debounced reloads.
func (w *Watcher) processEvents(ctx context.Context, reloadFn func(*Config)) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only reload on write or create events for the watched file.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Configuration file changed")

			// Debounce reload
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				cfg, err := Load(w.path)
				if err != nil {
					w.logger.Error().Err(err).Msg("Failed to reload configuration")
					return
				}
				w.logger.Info().Msg("Configuration reloaded")
				reloadFn(cfg)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Close stops watching for file changes.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
