// Package confloader loads and watches refstate configuration files.
package confloader

import (
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// changeOps are the fsnotify operations reported to callbacks. Editors that
// save by rename show up as Create on the target name.
const changeOps = fsnotify.Write | fsnotify.Create

// Watcher reports changes to a set of files. The parent directory of each
// file is watched so that files may be replaced or created later.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu        sync.RWMutex
	files     map[string]struct{}
	callbacks []func(string)

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher returns a Watcher that is not yet running.
func NewWatcher(opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:     fw,
		logger: slog.Default(),
		files:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds path to the watched set. Only its directory must exist.
func (w *Watcher) Watch(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		w.logger.Error("watch config directory", "dir", dir, "error", err)
		return err
	}

	w.mu.Lock()
	w.files[path] = struct{}{}
	w.mu.Unlock()

	w.logger.Debug("watching config file", "path", path)
	return nil
}

// OnChange registers cb. It is called with the changed path from the
// watcher goroutine and may be registered while the watcher runs.
func (w *Watcher) OnChange(cb func(string)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, cb)
	w.mu.Unlock()
}

// Start processes events until Stop is called.
func (w *Watcher) Start() {
	w.logger.Info("config watcher started")
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

// StartAsync runs Start in a new goroutine.
func (w *Watcher) StartAsync() {
	go w.Start()
}

// Stop ends event processing. Subsequent calls return nil.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if err = w.fs.Close(); err != nil {
			w.logger.Error("close config watcher", "error", err)
			return
		}
		w.logger.Info("config watcher stopped")
	})
	return err
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&changeOps == 0 {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.RLock()
	_, ok := w.files[path]
	cbs := slices.Clone(w.callbacks)
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.logger.Debug("config file changed", "path", path, "op", ev.Op.String())
	for _, cb := range cbs {
		cb(path)
	}
}
