package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig controls StartWatcher.
type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // emit PDFs already present at start
	Debounce    time.Duration // coalesce bursts of events into one batch
	SkipHidden  bool
}

// StartWatcher watches Roots for new or rewritten PDFs and emits them in
// batches once no further event arrived for Debounce. Both channels close
// when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan []string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher.start.failed", "error", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.start.failed", "error", err)
		return nil, nil, err
	}

	pending := map[string]struct{}{}
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) {
				pending[path] = struct{}{}
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watcher.root.failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	batches := make(chan []string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errs)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher.close.failed", "error", err)
			}
		}()

		timer := time.NewTimer(cfg.Debounce)
		if len(pending) == 0 {
			timer.Stop()
		}

		flush := func() {
			if len(pending) == 0 {
				return
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			select {
			case batches <- batch:
				logger.Debug("watcher.batch", "files", len(batch))
			case <-ctx.Done():
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if err := addDir(e.Name); err != nil {
							logger.Warn("watcher.dir.add_failed", "path", e.Name, "error", err)
						}
					}
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if AllowedExt(filepath.Ext(e.Name)) && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					pending[e.Name] = struct{}{}
					if cfg.Debounce <= 0 {
						flush()
						continue
					}
					timer.Reset(cfg.Debounce)
				}
			case <-timer.C:
				flush()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return batches, errs, nil
}
