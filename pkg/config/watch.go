package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a configuration file for changes and reloads the global
// singleton when it changes. It debounces bursts of filesystem events (many
// editors emit write+chmod+rename for a single save) into a single reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	path     string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// DefaultDebounceInterval is applied when NewWatcher is called with a zero
// debounce.
const DefaultDebounceInterval = 250 * time.Millisecond

// NewWatcher creates a watcher for the configuration file at path. debounce
// of zero applies DefaultDebounceInterval.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		logger:   logger,
		path:     path,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, reloading the global configuration via ReloadConfig whenever
// the watched file changes, until ctx is cancelled or Stop is called. Errors
// from a failed reload are logged, not returned — a bad edit must not kill
// the watch loop, since that would strand the process on a broken config
// with no path back to a good one short of a restart.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("config watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config directory %q: %w", dir, err)
	}

	target := filepath.Clean(w.path)
	w.logger.Info("config watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("config watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			w.scheduleReload(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("config watcher errors channel closed")
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleReload(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("reloading configuration", "path", w.path, "op", event.Op.String())
		if err := ReloadConfig(w.path); err != nil {
			w.logger.Error("config reload failed", "path", w.path, "error", err)
		}
	})
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}
