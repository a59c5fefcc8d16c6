// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 100 * time.Millisecond

// ReloadFunc receives the reloaded configuration, or the error that
// prevented reloading it.
type ReloadFunc func(cfg *Config, err error)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	fn       ReloadFunc
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// NewWatcher starts watching path. The file's directory is watched rather
// than the file, so saves that replace the file are seen too. Call Run to
// deliver reloads.
func NewWatcher(path string, fn ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{path: abs, fn: fn, debounce: watchDebounce, fs: fsw}, nil
}

// Run delivers reloads until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.fn(nil, fmt.Errorf("watch %s: %w", w.path, err))

		case <-fire:
			fire = nil
			w.fn(LoadFromPath(w.path))
		}
	}
}

// Watch calls fn with the reloaded config each time path changes, until ctx
// is cancelled.
func Watch(ctx context.Context, path string, fn ReloadFunc) error {
	w, err := NewWatcher(path, fn)
	if err != nil {
		return err
	}
	w.Run(ctx)
	return nil
}
