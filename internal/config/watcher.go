// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file whenever it changes on disk and
// publishes each successfully-parsed Config on Changes. No cmd/decode
// subcommand creates one. A reload never reaches a search.Manager that
// already exists, since search.Config is consumed by value at Manager
// construction.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	changes chan *Config
	errs    chan error
	done    chan struct{}
}

// NewWatcher starts watching the directory containing path (fsnotify
// watches directories more reliably than single files across editors'
// save-by-rename behavior) and returns a Watcher whose Changes channel
// receives a freshly-parsed Config after every write event to path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", dir, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: fw,
		changes: make(chan *Config, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.changes)
	defer close(w.errs)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				slog.Warn("config: reload failed, keeping previous configuration",
					slog.String("path", w.path), slog.Any("error", err))
				select {
				case w.errs <- err:
				default:
				}
				continue
			}
			slog.Info("config: reloaded", slog.String("path", w.path))
			select {
			case w.changes <- cfg:
			default:
				// Drop the stale pending reload in favor of the newest one.
				select {
				case <-w.changes:
				default:
				}
				w.changes <- cfg
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", slog.Any("error", err))
		}
	}
}

// Changes returns the channel of successfully-reloaded configurations.
func (w *Watcher) Changes() <-chan *Config { return w.changes }

// Errors returns the channel of reload failures (the previous Config
// remains in effect when one occurs).
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops watching and releases the underlying inotify/kqueue
// handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
