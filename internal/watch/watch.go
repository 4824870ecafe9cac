// Package watch re-runs builds when their tracked dependencies change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Wait keeps collecting events after the first
// relevant one.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a build's file and context dependencies.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	files   map[string]bool
	dirs    []string
	watched map[string]bool
}

// New creates a Watcher. A debounce <= 0 uses DefaultDebounce.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		logger:   logger,
		files:    make(map[string]bool),
		watched:  make(map[string]bool),
	}, nil
}

// Reset replaces the watched set. Files are watched through their parent
// directory; dirs are watched recursively.
func (w *Watcher) Reset(files, dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.watched {
		_ = w.fsw.Remove(p)
	}
	w.watched = make(map[string]bool)
	w.files = make(map[string]bool, len(files))
	w.dirs = w.dirs[:0]

	var errs []error
	for _, f := range files {
		f = filepath.Clean(f)
		w.files[f] = true
		if err := w.add(filepath.Dir(f)); err != nil {
			errs = append(errs, err)
		}
	}
	for _, d := range dirs {
		d = filepath.Clean(d)
		w.dirs = append(w.dirs, d)
		if err := w.addTree(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *Watcher) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watched[dir] = true
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.add(p)
	})
}

func (w *Watcher) relevant(p string) bool {
	if w.files[p] {
		return true
	}
	for _, d := range w.dirs {
		if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Wait blocks until a watched dependency changes, then keeps collecting
// changes until none arrive for the debounce interval. It returns the changed
// paths in sorted order.
func (w *Watcher) Wait(ctx context.Context) ([]string, error) {
	changed := make(map[string]bool)
	var timer <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			w.logger.Warn("watch error", "error", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			if !w.handle(ev) {
				continue
			}
			changed[filepath.Clean(ev.Name)] = true
			timer = time.After(w.debounce)
		case <-timer:
			out := make([]string, 0, len(changed))
			for p := range changed {
				out = append(out, p)
			}
			sort.Strings(out)
			return out, nil
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := filepath.Clean(ev.Name)
	if !w.relevant(p) {
		return false
	}
	w.logger.Debug("change detected", "path", p, "op", ev.Op.String())

	// New directories inside a watched context need their own watch.
	if ev.Has(fsnotify.Create) && !w.files[p] {
		if err := w.addTree(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("watch new path", "path", p, "error", err)
		}
	}
	return true
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
