package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
)

// DefaultDebounce is the quiet period before a change triggers a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-runs a rebuild function when files under root change.
type Watcher struct {
	root     string
	rebuild  func(context.Context) error
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches root and its subdirectories.
func NewWatcher(root string, rebuild func(context.Context) error, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, rebuild: rebuild, debounce: DefaultDebounce, logger: logger}
}

// Run blocks until ctx is done. Bursts of events collapse into one rebuild;
// events during a rebuild queue at most one more.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	w.addDirsRecursive(fw, w.root)

	rebuildReq, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				w.logger.Info("Change detected; rebuilding index", logfields.MediaDir(w.root))
				if err := w.rebuild(ctx); err != nil {
					w.logger.Warn("Rebuild failed", logfields.Error(err))
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// shouldIgnore skips the generated page, hidden files (including atomic
// write temporaries) and editor swap files.
func (w *Watcher) shouldIgnore(name string) bool {
	if filepath.Clean(name) == filepath.Join(w.root, config.IndexFileName) {
		return true
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		base == "Thumbs.db"
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// newDebouncer returns a request channel and a trigger that fires it after
// delay of quiet. stop cancels a pending timer.
func newDebouncer(delay time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}
