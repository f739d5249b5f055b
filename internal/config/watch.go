package config

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Store holds the current config and swaps it when the file changes.
type Store struct {
	path   string
	cur    atomic.Pointer[Config]
	logger *log.Logger
}

// NewStore wraps an already loaded config.
func NewStore(path string, cfg *Config, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Store{path: path, logger: logger}
	s.cur.Store(cfg)
	return s
}

// Get returns the current config. Callers must not mutate it.
func (s *Store) Get() *Config {
	return s.cur.Load()
}

// Set replaces the current config.
func (s *Store) Set(cfg *Config) {
	s.cur.Store(cfg)
}

// Reload reads the file again. A broken file keeps the previous config.
func (s *Store) Reload() error {
	cfg, err := LoadFromPath(s.path)
	if err != nil {
		return err
	}
	s.cur.Store(cfg)
	return nil
}

// Watch reloads the config whenever the file is written, until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("config reload failed, keeping previous", "path", s.path, "error", err)
					continue
				}
				s.logger.Info("config reloaded", "path", s.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
