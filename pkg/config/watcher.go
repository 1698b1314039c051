package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher listens for changes to the config files and hot-reloads safely.
type Watcher struct {
	loader   *Loader
	debounce time.Duration

	fsw *fsnotify.Watcher

	stop chan struct{}
	done chan struct{}

	mu       sync.Mutex
	lastHash string

	onChange func(*Settings)
	onError  func(error)
}

// WatcherOption configures the hot reloader.
type WatcherOption func(*Watcher)

// WithDebounce overrides the default debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// OnChange registers a callback fired after successful reload.
func OnChange(fn func(*Settings)) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// OnError registers a callback for reload failures.
func OnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher wires a file watcher around the provided loader.
func NewWatcher(loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	if loader == nil {
		return nil, errors.New("config: loader is nil")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	w := &Watcher{
		loader:   loader,
		debounce: 150 * time.Millisecond,
		fsw:      fsw,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = 150 * time.Millisecond
	}
	return w, nil
}

// Start loads the initial settings and begins watching the config root.
// Watching the directory rather than the files survives editors that
// replace files by rename.
func (w *Watcher) Start() (*Settings, error) {
	settings, hash, err := w.loader.Load()
	if err != nil {
		return nil, err
	}
	if err := w.fsw.Add(w.loader.Root); err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", w.loader.Root, err)
	}
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(settings)
	}
	go w.loop()
	return settings, nil
}

// Close stops file watching.
func (w *Watcher) Close() error {
	close(w.stop)
	<-w.done
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)
	var timer *time.Timer
	schedule := func() {
		if timer == nil {
			timer = time.AfterFunc(w.debounce, func() {
				w.reload()
			})
			return
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case err := <-w.fsw.Errors:
			if err != nil && w.onError != nil {
				w.onError(err)
			}
		case evt := <-w.fsw.Events:
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}
		}
	}
}

func (w *Watcher) reload() {
	settings, hash, err := w.loader.Load()
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	w.mu.Lock()
	unchanged := hash == w.lastHash
	if !unchanged {
		w.lastHash = hash
	}
	w.mu.Unlock()
	if unchanged {
		return
	}
	if w.onChange != nil {
		w.onChange(settings)
	}
}
