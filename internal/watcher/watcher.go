// Package watcher re-imports catalog files dropped into import directories.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/pkg/utils"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher calls onChange for files created or rewritten in its directories. Bursts of
// writes to one file (editors, spreadsheet saves) collapse into a single call.
type Watcher struct {
	dirs       []string
	extensions []string
	onChange   func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	pending  map[string]*time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for watcher events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the quiet period before onChange fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher over dirs (not recursive) for files with the given
// extensions; no extensions means every file.
func New(dirs, extensions []string, onChange func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		dirs:       dirs,
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Start creates missing directories and begins watching. It returns once the watches
// are registered; events are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = fsw.Close()
			return err
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()
	w.logger.Info("Watching catalog import directories", zap.Strings("dirs", w.dirs))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.Matches(ev.Name) {
				w.schedule(ev.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			return
		}
		w.logger.Debug("Catalog file changed", zap.String("path", path))
		w.onChange(path)
	})
}

// SyncExisting calls onChange for every matching file already present.
func (w *Watcher) SyncExisting() {
	for _, dir := range w.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			w.logger.Warn("Cannot read import directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && w.Matches(e.Name()) {
				w.onChange(filepath.Join(dir, e.Name()))
			}
		}
	}
}

// Stop stops watching and cancels pending callbacks.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
