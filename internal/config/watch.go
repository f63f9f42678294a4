package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes on disk and hands every
// valid result to onChange. Invalid edits are logged and skipped.
type Watcher struct {
	path     string
	logger   *slog.Logger
	onChange func(Loaded)
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	reloadMu sync.Mutex
	closed   bool
}

// NewWatcher prepares a watcher for path. Start must be called to begin.
func NewWatcher(path string, logger *slog.Logger, onChange func(Loaded)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		logger:   logger,
		onChange: onChange,
		debounce: defaultWatchDebounce,
		watcher:  watcher,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the config file's directory so editor rename-on-save is seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		return fmt.Errorf("watch %q: %w", filepath.Dir(w.path), err)
	}

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the inotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounced := debounce.New(w.debounce)
	defer func() {
		// Swap any queued reload for a no-op, then wait out one in flight.
		debounced(func() {})
		w.reloadMu.Lock()
		w.closed = true
		w.reloadMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			debounced(w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log(slog.LevelWarn, "config watch error", "error", err.Error())
		}
	}
}

func (w *Watcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if w.closed {
		return
	}

	loaded, err := Load(w.path)
	if err != nil {
		w.log(slog.LevelWarn, "config reload rejected", "path", w.path, "error", err.Error())
		return
	}
	if !loaded.Exists {
		return
	}
	w.log(slog.LevelInfo, "config reloaded", "path", w.path)
	w.onChange(loaded)
}

func (w *Watcher) log(level slog.Level, msg string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Log(context.Background(), level, msg, args...)
}
