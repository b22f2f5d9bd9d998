package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the configuration file and triggers reloads.
type Watcher struct {
	configPath   string
	onReload     func(*Config)
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewWatcher creates a configuration file watcher. onReload is invoked with
// the freshly loaded configuration after each change that parses cleanly.
func NewWatcher(configPath string, onReload func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching.
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	return &Watcher{
		configPath:   absPath,
		onReload:     onReload,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second, // Debounce rapid file changes
	}, nil
}

// Start begins monitoring the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch the directory containing the config file; watching the file
	// directly breaks across editor rename-and-replace saves.
	configDir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(configDir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", configDir, err)
	}

	slog.Info("Starting configuration watcher", "config_path", w.configPath)

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	return nil
}

// Stop stops the configuration watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	if err := w.watcher.Close(); err != nil {
		slog.Error("Error closing file watcher", "error", err)
	}
}

// watchLoop forwards relevant file system events to the debounced reloader.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.reloadChan <- struct{}{}:
			default: // reload already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

// reloadLoop debounces change signals and performs the reload.
func (w *Watcher) reloadLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.reloadChan:
			timer := time.NewTimer(w.debounceTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-w.stopChan:
				timer.Stop()
				return
			case <-timer.C:
			}
			cfg, err := Load(w.configPath)
			if err != nil {
				slog.Error("Config reload failed, keeping previous configuration", "error", err)
				continue
			}
			slog.Info("Configuration reloaded", "config_path", w.configPath)
			w.onReload(cfg)
		}
	}
}
