package server

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/util"
)

// reloadDebounce collapses the burst of events an editor produces when saving.
// reloadMaxWait bounds the delay when writes keep arriving.
const (
	reloadDebounce = 250 * time.Millisecond
	reloadMaxWait  = time.Second
)

// WatchConfig reloads cfg whenever its file changes and calls each onReload
// function after a successful reload. A file that fails to parse is logged
// and the previous values stay in effect. It returns when ctx is cancelled.
func WatchConfig(ctx context.Context, cfg *config.Config, onReload ...func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return util.WrapError("start config watcher", err)
	}
	defer util.SafeCloseFunc(watcher, "config watcher")()

	// Editors often replace the file, so watch the directory and filter by name.
	path := filepath.Clean(cfg.Path())
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return util.WrapError("watch config directory", err)
	}
	slog.Info("watching config file", "path", path)

	var reload, maxWait <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-reload:
			reload, maxWait = nil, nil
			reloadConfig(cfg, path, onReload)

		case <-maxWait:
			reload, maxWait = nil, nil
			reloadConfig(cfg, path, onReload)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("config watcher event", "event", event.String())
			reload = time.After(reloadDebounce)
			if maxWait == nil {
				maxWait = time.After(reloadMaxWait)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// reloadConfig re-reads cfg and runs the callbacks. A file that fails to
// parse keeps the previous values.
func reloadConfig(cfg *config.Config, path string, onReload []func()) {
	if err := cfg.Reload(); err != nil {
		slog.Error("failed to reload config", "path", path, "error", err)
		return
	}
	slog.Info("config reloaded", "path", path)
	for _, fn := range onReload {
		fn()
	}
}
