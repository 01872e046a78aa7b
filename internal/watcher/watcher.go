// Package watcher invalidates the search index when the entity database
// changes on disk. It is a push-assist on top of the pull-based TTL: missing
// events only widen staleness up to the TTL, never break correctness.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Invalidator is the hook called after the database file changes.
type Invalidator interface {
	Invalidate()
}

// Watcher watches a SQLite database file (and its WAL sibling) and calls the
// invalidator on writes, debounced so bursts of page flushes collapse into one
// invalidation.
type Watcher struct {
	dbPath   string
	target   Invalidator
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// New creates a watcher for the database at dbPath.
func New(dbPath string, target Invalidator, logger *zap.Logger) *Watcher {
	return &Watcher{
		dbPath:   dbPath,
		target:   target,
		debounce: defaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
// The containing directory is watched because SQLite replaces and appends
// sibling files (-wal, -journal) rather than rewriting the database in place.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.dbPath)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("database watcher starting", zap.String("path", w.dbPath))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("database watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !w.isDatabaseFile(ev.Name) {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return
	}
	w.logger.Debug("database change observed",
		zap.String("op", ev.Op.String()), zap.String("path", ev.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("invalidating search index after database change")
		w.target.Invalidate()
	})
}

// isDatabaseFile matches the database itself and SQLite's sidecar files.
func (w *Watcher) isDatabaseFile(path string) bool {
	clean := filepath.Clean(path)
	base := filepath.Clean(w.dbPath)
	return clean == base || strings.HasPrefix(clean, base+"-")
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		close(w.done)
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.started = false
	})
}
