package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a changed file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Catalog when its overlay file changes. The parent
// directory is watched so that editors replacing the file by rename are
// noticed as well.
type Watcher struct {
	catalog  *Catalog
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce *Debouncer
	file     string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for c. It fails when c has no overlay file.
func NewWatcher(c *Catalog, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if c.Path() == "" {
		return nil, errors.New("prompt catalog has no file to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	file, err := filepath.Abs(c.Path())
	if err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		catalog:  c,
		watcher:  fw,
		logger:   logger,
		debounce: NewDebouncer(debounce),
		file:     file,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is cancelled or Stop is called. onReload, when not
// nil, is called after every reload attempt with its result.
func (w *Watcher) Watch(ctx context.Context, onReload func(error)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer close(w.doneCh)

	if err := w.watcher.Add(filepath.Dir(w.file)); err != nil {
		return fmt.Errorf("failed to watch prompt directory: %w", err)
	}
	w.logger.Info("prompt watcher started", "path", w.file)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("prompt file event", "path", event.Name, "op", event.Op.String())
			w.debounce.Trigger(func() {
				err := w.catalog.Reload()
				if err != nil {
					w.logger.Error("prompt reload failed", "path", w.file, "error", err)
				}
				if onReload != nil {
					onReload(err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("prompt watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	return err == nil && name == w.file
}

// Stop ends Watch and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Debouncer runs the most recently triggered callback once no trigger
// arrived for the configured interval.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels a pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
