package collection

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"songresolve/internal/logger"
)

const defaultDebounce = 2 * time.Second

// Watcher rescans the collection when audio files under its directories
// change. Bursts of events are coalesced into one scan.
type Watcher struct {
	ix       *Index
	dirs     []string
	log      *logger.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher returns a watcher for dirs. Call Start to begin watching.
func NewWatcher(ix *Index, dirs []string, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Watcher{
		ix:       ix,
		dirs:     dirs,
		log:      log,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
}

// SetDebounce overrides the quiet period before a rescan.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start registers every directory below the collection roots and begins
// processing events until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw

	for _, dir := range w.dirs {
		w.addTree(dir)
	}
	w.log.Info("Watching %d collection dirs for changes", len(w.dirs))

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for a running scan to return.
func (w *Watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
	w.wg.Wait()
}

func (w *Watcher) addTree(root string) {
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.log.Warn("Cannot watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Collection watcher error: %v", err)

		case <-timer.C:
			w.log.Debug("Collection changed, rescanning")
			if _, err := w.ix.Scan(ctx, w.dirs); err != nil {
				w.log.Warn("Rescan failed: %v", err)
			}

		case <-w.done:
			return

		case <-ctx.Done():
			return
		}
	}
}

// relevant reports whether ev may change the index. New directories are
// watched as they appear.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if isDir(ev.Name) {
			w.addTree(ev.Name)
			return true
		}
	}
	return MimetypeFor(ev.Name) != ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
