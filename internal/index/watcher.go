package index

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/storage"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, filename string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the reports directory and processes
// file change events until ctx is cancelled. It calls cb (if non-nil)
// after each successful catalog mutation.
//
// Rename events trigger a reconciliation pass that removes stale catalog
// entries whose files no longer exist on disk.
func Watch(ctx context.Context, db Catalog, src Source, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir, err := src.Store.Abs(src.Dir)
	if err != nil {
		return err
	}
	if err := src.Store.EnsureDir(src.Dir); err != nil {
		return err
	}
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

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

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, src, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				meta, statErr := src.Store.Stat(path.Join(src.Dir, name))
				if statErr != nil {
					logger.Warn("watcher: stat failed", slog.String("filename", name), slog.String("error", statErr.Error()))
					continue
				}
				meta.Name = name
				if idxErr := indexFile(db, src, meta); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("filename", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("filename", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, name)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteReport(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("filename", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("filename", name))
				if cb != nil {
					cb("deleted", name)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old name only; the new one arrives
				// as a Create if it stays inside the directory.
				if delErr := db.DeleteReport(name); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("filename", name), slog.String("error", delErr.Error()))
				} else if cb != nil {
					cb("deleted", name)
				}
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

// reconcile removes catalog entries without a file on disk and indexes
// files whose checksum differs from the catalog.
func reconcile(db Catalog, src Source, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := src.Store.List(src.Dir)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.FileMeta, len(metas))
	for _, m := range metas {
		disk[m.Name] = m
	}

	for name := range checksums {
		if _, ok := disk[name]; ok {
			continue
		}
		if delErr := db.DeleteReport(name); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("filename", name))
			if cb != nil {
				cb("deleted", name)
			}
		}
	}

	for name, m := range disk {
		data, readErr := readReport(src, name)
		if readErr != nil {
			logger.Warn("reconcile: read failed", slog.String("filename", name), slog.String("error", readErr.Error()))
			continue
		}
		prev, known := checksums[name]
		if known && prev == storage.Checksum(data) {
			continue
		}
		if idxErr := upsertData(db, src, m, data); idxErr != nil {
			continue
		}
		kind := "updated"
		if !known {
			kind = "created"
		}
		logger.Debug("reconcile: indexed", slog.String("filename", name), slog.String("op", kind))
		if cb != nil {
			cb(kind, name)
		}
	}
}
