package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 100 * time.Millisecond

// Handler receives one batch of changed absolute paths.
type Handler func(ctx context.Context, changed PathSet) error

// Watcher reports filesystem changes under a set of roots in debounced batches.
//
// Directory roots are watched recursively. File roots, and directory roots
// that do not exist yet, are watched through their parent directory so that
// atomic saves (write to a temp file, rename over) and later creation are
// seen. Events in such a parent are only reported for the tracked names.
type Watcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	roots   PathSet // directory roots, present or not
	files   PathSet // file roots
	dirs    PathSet // directories watched as part of a root tree
	parents PathSet // parents watched only for the names in roots and files
}

// NewWatcher creates a watcher. A zero debounce uses DefaultDebounce.
func NewWatcher(logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		fs:       fw,
		logger:   logger,
		debounce: debounce,
		roots:    NewPathSet(),
		files:    NewPathSet(),
		dirs:     NewPathSet(),
		parents:  NewPathSet(),
	}, nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Watched returns the file roots and the directories currently watched.
func (w *Watcher) Watched() []string {
	return w.files.Union(w.dirs).Sorted()
}

// Add registers roots. Directories are watched recursively; files are
// watched directly. Roots that do not exist yet are skipped until they are
// created, as long as their parent directory exists.
func (w *Watcher) Add(roots ...string) error {
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", root, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to stat %s: %w", abs, err)
			}
			w.logger.Debug("skipping missing watch root", "path", abs)
			w.roots.Add(abs)
			if err := w.addParent(filepath.Dir(abs)); err != nil {
				return err
			}
			continue
		}

		if !info.IsDir() {
			w.files.Add(abs)
			if err := w.addParent(filepath.Dir(abs)); err != nil {
				return err
			}
			continue
		}

		w.roots.Add(abs)
		if err := w.addTree(abs, nil); err != nil {
			return err
		}
	}
	return nil
}

// addTree recursively adds a directory, skipping hidden subdirectories.
// Files already present are added to found when it is non-nil.
func (w *Watcher) addTree(root string, found PathSet) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if found != nil {
				found.Add(path)
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.addDir(path)
	})
}

func (w *Watcher) addDir(path string) error {
	if w.dirs.Contains(path) {
		return nil
	}
	if err := w.fs.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.dirs.Add(path)
	return nil
}

// addParent watches dir for the tracked names inside it. Missing parents
// are skipped.
func (w *Watcher) addParent(dir string) error {
	if w.parents.Contains(dir) || w.dirs.Contains(dir) {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		w.logger.Debug("skipping missing watch parent", "path", dir)
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.parents.Add(dir)
	return nil
}

// relevant reports whether an event on path concerns a root.
func (w *Watcher) relevant(path string) bool {
	return w.files.Contains(path) || w.roots.Contains(path) ||
		w.dirs.Contains(path) || w.dirs.Contains(filepath.Dir(path))
}

// forget drops path and every directory below it. The kernel has already
// released those watches, so a directory recreated under the same name is
// added again from scratch.
func (w *Watcher) forget(path string) {
	for dir := range w.dirs {
		if !IsPathWithin(path, dir) {
			continue
		}
		w.dirs.Remove(dir)
		_ = w.fs.Remove(dir)
	}
	if w.roots.Contains(path) {
		if err := w.addParent(filepath.Dir(path)); err != nil {
			w.logger.Warn("failed to watch for root recreation", "path", path, "error", err)
		}
	}
}

// observe updates the watch set for one event and adds the changed paths to
// pending. A directory that appears is watched and the files already inside
// it are reported too, since they may have been written before the watch was
// in place. It reports whether anything was added.
func (w *Watcher) observe(event fsnotify.Event, pending PathSet) bool {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		path = filepath.Clean(event.Name)
	}
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.parents.Remove(path)
	}
	if !w.relevant(path) {
		return false
	}
	pending.Add(path)

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.forget(path)
	}

	if event.Op.Has(fsnotify.Create) && (w.roots.Contains(path) || w.dirs.Contains(filepath.Dir(path))) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addTree(path, pending); err != nil {
				w.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
		}
	}
	return true
}

// Run delivers batches to handler until ctx is cancelled.
//
// Events are collected until no new event arrives for the debounce window,
// then the batch is passed to handler once. Handler errors are logged and the
// loop keeps running; a failed rebuild must not end watch mode.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	pending := NewPathSet()
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}

			if !w.observe(event, pending) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := pending
			pending = NewPathSet()
			w.logger.Debug("change batch", "paths", batch.Len())
			if err := handler(ctx, batch); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}
