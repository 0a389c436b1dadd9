package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path string
	w    *fsnotify.Watcher
	log  *slog.Logger
}

// NewWatcher starts watching path. The directory is watched rather than the
// file so editors that replace the file on save are still seen.
func NewWatcher(path string, log *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{path: abs, w: w, log: log.With("config", abs)}, nil
}

// Run delivers every valid reload to fn until ctx is done. Files that fail
// to load or validate are logged and skipped.
func (w *Watcher) Run(ctx context.Context, fn func(Config)) error {
	defer w.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				w.log.Warn("config reload rejected", "err", err)
				continue
			}
			w.log.Info("config reloaded", "tier", cfg.Tier)
			fn(cfg)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watch", "err", err)
		}
	}
}
