// Package watcher reloads the rufusd configuration on file changes.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler is called when a configuration file change is detected.
type ReloadHandler func() error

// Watcher watches the configuration file for changes and triggers reload.
type Watcher struct {
	configPath string
	handler    ReloadHandler
	logger     *slog.Logger
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	lastReload time.Time
	debounce   time.Duration
}

// Config holds watcher configuration.
type Config struct {
	ConfigPath string
	Handler    ReloadHandler
	Logger     *slog.Logger
	Debounce   time.Duration // debounce period to avoid multiple rapid reloads
}

// New creates a new configuration file watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.ConfigPath == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("reload handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = time.Second
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(cfg.ConfigPath)
	if err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &Watcher{
		configPath: absPath,
		handler:    cfg.Handler,
		logger:     cfg.Logger.With("component", "watcher"),
		watcher:    fsWatcher,
		debounce:   cfg.Debounce,
	}, nil
}

// Start begins watching; it blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch the directory rather than the file itself: editors and
	// configmap mounts replace the file, which would drop a file watch.
	if err := w.watcher.Add(filepath.Dir(w.configPath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	defer w.watcher.Close()

	w.logger.Info("watching config for changes", "path", w.configPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.maybeReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) maybeReload() {
	w.mu.Lock()
	if time.Since(w.lastReload) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.lastReload = time.Now()
	w.mu.Unlock()

	w.logger.Info("config change detected, reloading")
	if err := w.handler(); err != nil {
		w.logger.Error("reload failed", "error", err)
	}
}
