// Package watch re-runs ingest when source directories change. Events
// are debounced: a burst of writes produces a single trigger after the
// tree has been quiet for the debounce window. The ingest pipeline is
// incremental, so each trigger is a cheap full re-scan.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow is how long the tree must stay quiet before a
// trigger fires.
const DefaultDebounceWindow = 500 * time.Millisecond

// Watcher monitors source directories recursively and calls the
// trigger function after each quiet period following a change.
type Watcher struct {
	dirs     []string
	window   time.Duration
	trigger  func(ctx context.Context)
	logger   *slog.Logger
	notifier *fsnotify.Watcher
}

// New creates a watcher over the given directories. A nil logger uses
// the default; a non-positive window uses DefaultDebounceWindow.
func New(dirs []string, window time.Duration, trigger func(ctx context.Context), logger *slog.Logger) (*Watcher, error) {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dirs:     dirs,
		window:   window,
		trigger:  trigger,
		logger:   logger,
		notifier: notifier,
	}, nil
}

// Run watches until the context is cancelled. Newly created
// subdirectories are added to the watch set as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.notifier.Close() }()

	for _, dir := range w.dirs {
		if err := w.addRecursive(dir); err != nil {
			return err
		}
	}

	w.logger.Info("watch_started",
		slog.Int("directories", len(w.dirs)),
		slog.Duration("debounce", w.window))

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.notifier.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watch_add_failed",
							slog.String("path", event.Name),
							slog.String("error", err.Error()))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.window)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.window)
			}

		case err, ok := <-w.notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Debug("watch_triggered")
			w.trigger(ctx)
		}
	}
}

// addRecursive registers dir and every subdirectory with the notifier.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.notifier.Add(path)
		}
		return nil
	})
}
