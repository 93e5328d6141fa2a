package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates catalog entries when files under the views root change.
// A change inside a view directory drops that view; a change to the shared
// prefixes drops every view.
type Watcher struct {
	root    string
	catalog *Catalog
	log     *zap.Logger
}

func NewWatcher(root string, catalog *Catalog, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{root: filepath.Clean(root), catalog: catalog, log: log}
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("failed to list %q: %w", w.root, err)
	}
	for _, e := range entries {
		if e.IsDir() && ValidName(e.Name()) {
			if err := fw.Add(filepath.Join(w.root, e.Name())); err != nil {
				return fmt.Errorf("failed to watch view %q: %w", e.Name(), err)
			}
		}
	}
	w.log.Debug("watching views", zap.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("view watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) == 1 && parts[0] == PrefixesFile:
		w.log.Info("prefixes changed, dropping all views", zap.String("op", ev.Op.String()))
		w.catalog.InvalidateAll()
	case len(parts) == 1:
		// a view directory itself
		if ev.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && ValidName(parts[0]) {
				if err := fw.Add(ev.Name); err != nil {
					w.log.Warn("failed to watch new view", zap.String("view", parts[0]), zap.Error(err))
				}
			}
		}
		w.catalog.Invalidate(parts[0])
	default:
		w.log.Info("view changed", zap.String("view", parts[0]), zap.String("file", parts[len(parts)-1]), zap.String("op", ev.Op.String()))
		w.catalog.Invalidate(parts[0])
	}
}
