package boundcache

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/protweight/internal/storage"
)

// EventCallback is called after a watcher-driven invalidation.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind, accession string)

const reconcileDelay = 200 * time.Millisecond

// Watch follows the graph directory with fsnotify and invalidates the bounds
// of every graph file that changes, until ctx is cancelled. cb, if non-nil,
// is called after each invalidation.
//
// Directories created at runtime are added to the watch list. Renames
// schedule a Sync pass that drops persisted bounds of vanished graphs.
func Watch(ctx context.Context, c *Cache, graphs storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	invalidate := func(kind, acc string) {
		if err := c.Invalidate(ctx, acc); err != nil {
			logger.Warn("watcher: invalidate failed", slog.String("accession", acc), slog.String("error", err.Error()))
			return
		}
		logger.Debug("watcher: invalidated", slog.String("accession", acc), slog.String("op", kind))
		if cb != nil {
			cb(kind, acc)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if n, err := Sync(ctx, c.Store(), graphs, logger); err != nil {
				logger.Warn("reconcile: sync failed", slog.String("error", err.Error()))
			} else if n > 0 {
				logger.Debug("reconcile: removed stale bounds", slog.Int("count", n))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					announceNewDir(graphs, root, ev.Name, invalidate)
					continue
				}
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			acc, ok := graphs.AccessionOf(rel)
			if !ok {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				invalidate("created", acc)
			case ev.Op&fsnotify.Write != 0:
				invalidate("updated", acc)
			case ev.Op&fsnotify.Remove != 0:
				invalidate("deleted", acc)
			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path arrives
				// as a Create if it stays under a watched directory.
				invalidate("deleted", acc)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// announceNewDir reports graph files that already sit in a newly created
// directory, e.g. one moved in as a whole.
func announceNewDir(graphs storage.Provider, root, dir string, invalidate func(kind, acc string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		if acc, ok := graphs.AccessionOf(rel); ok {
			invalidate("created", acc)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
