package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"insights/internal/vault"
)

// Watcher watches a vault tree and calls onChange, debounced, when markdown files change.
type Watcher struct {
	root     string
	ignore   map[string]struct{}
	delay    time.Duration
	onChange func()
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithIgnore excludes vault-relative paths, such as the digest document.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			w.ignore[filepath.ToSlash(filepath.Clean(p))] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for root.
func New(root string, onChange func(), opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ignore:   make(map[string]struct{}),
		delay:    MinDelay,
		onChange: onChange,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches until ctx is done. A pending debounced call is dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	deb := NewDebouncer(w.delay, w.onChange)
	defer deb.Stop()

	w.logger.Info("watching vault", zap.String("root", w.root), zap.Duration("debounce", deb.Delay()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && w.isVisibleDir(ev.Name) {
				if err := w.addTree(fsw, ev.Name); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
				}
			}
			if w.relevant(ev) {
				w.logger.Debug("vault changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				deb.Trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fs watcher error", zap.Error(err))
		}
	}
}

// addTree watches dir and every visible directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && vault.IsHiddenPath(w.rel(p)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// relevant reports whether ev should schedule a rebuild.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	rel := w.rel(ev.Name)
	if rel == "" || vault.IsHiddenPath(rel) {
		return false
	}
	if _, ok := w.ignore[rel]; ok {
		return false
	}
	if vault.IsMarkdown(rel) {
		return true
	}
	// a removed or renamed directory may have held documents
	return (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) && filepath.Ext(rel) == ""
}

func (w *Watcher) isVisibleDir(p string) bool {
	if vault.IsHiddenPath(w.rel(p)) {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// rel returns p relative to the root with forward slashes, or "" when p is outside it.
func (w *Watcher) rel(p string) string {
	r, err := filepath.Rel(w.root, p)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(r)
}
