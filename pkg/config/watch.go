package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/dittoapi/internal/logger"
)

// Watch reloads the file at path whenever it changes and passes the new,
// validated configuration to onChange. Invalid edits are logged and
// skipped. The directory is watched rather than the file so that editors
// which replace files atomically are handled. Watching stops when ctx is
// done.
//
// The watch loop is started with spawn, which lets callers supervise it;
// nil starts a plain goroutine. onChange runs on the loop.
func Watch(ctx context.Context, path string, spawn func(func()), onChange func(*Config)) error {
	if path == "" {
		return fmt.Errorf("config watch requires an explicit file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	spawn(func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					logger.Warn("Ignoring invalid configuration change", "path", abs, logger.KeyError, err)
					continue
				}
				logger.Info("Configuration reloaded", "path", abs)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Config watcher error", logger.KeyError, err)
			}
		}
	})
	return nil
}
