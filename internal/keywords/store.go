package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store holds the active dictionary and swaps it atomically on reload.
type Store struct {
	cur atomic.Pointer[Dictionary]
	log *slog.Logger
}

func NewStore(d *Dictionary, log *slog.Logger) *Store {
	s := &Store{log: log}
	s.cur.Store(d)
	return s
}

// Get returns the current dictionary.
func (s *Store) Get() *Dictionary {
	return s.cur.Load()
}

// Set replaces the current dictionary.
func (s *Store) Set(d *Dictionary) {
	s.cur.Store(d)
}

// Watch reloads path whenever it is written or replaced, until ctx is done.
// A file that fails to parse is logged and the previous dictionary is kept.
// The parent directory is watched so editors that rename over the file are
// picked up.
func (s *Store) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				d, err := Load(abs)
				if err != nil {
					s.log.Warn("keyword dictionary reload failed", "path", abs, "error", err)
					continue
				}
				s.Set(d)
				s.log.Info("keyword dictionary reloaded", "path", abs, "chapters", len(d.Chapters))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("keyword watcher error", "error", err)
			}
		}
	}()
	return nil
}
