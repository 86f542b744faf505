// Package watch re-runs work when a local sheet export changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ecomap/internal/logging"
)

// DefaultDebounce is the quiet period before OnChange fires.
const DefaultDebounce = 500 * time.Millisecond

// Stats counts watcher activity.
type Stats struct {
	Events        int
	Triggers      int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// FileWatcher watches one file. Editors and exporters usually replace files by
// writing a temp file and renaming it, so the parent directory is watched and
// events are filtered by name.
type FileWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(context.Context)
	logger   *zap.Logger

	pending   bool
	lastEvent time.Time
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	stats     Stats
}

// New returns a watcher for path. onChange runs on the watcher goroutine after
// each debounced burst of changes.
func New(path string, debounce time.Duration, onChange func(context.Context), logger *zap.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return &FileWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logging.OrNop(logger),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (fw *FileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		return fmt.Errorf("watch %s: %w", filepath.Dir(fw.path), err)
	}
	fw.logger.Info("watching sheet file", zap.String("path", fw.path))

	go fw.run(ctx)
	return nil
}

// Stop ends the loop and waits for it to exit. It is safe to call more than once.
func (fw *FileWatcher) Stop() {
	fw.mu.Lock()
	wasRunning := fw.running
	fw.running = false
	fw.mu.Unlock()

	if wasRunning {
		select {
		case <-fw.stopCh:
		default:
			close(fw.stopCh)
		}
		<-fw.doneCh
	}
	if err := fw.watcher.Close(); err != nil {
		fw.logger.Warn("close watcher", zap.Error(err))
	}
}

// Done is closed when the loop exits.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.doneCh
}

// Stats returns a snapshot of the counters.
func (fw *FileWatcher) Stats() Stats {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.stats
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	tick := time.NewTicker(fw.debounce / 5)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watcher error", zap.Error(err))
			fw.mu.Lock()
			fw.stats.Errors++
			fw.mu.Unlock()

		case <-tick.C:
			if fw.due() {
				fw.onChange(ctx)
			}
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != fw.path {
		return
	}
	var kind string
	switch {
	case event.Has(fsnotify.Create):
		kind = "create"
	case event.Has(fsnotify.Write):
		kind = "modify"
	case event.Has(fsnotify.Rename):
		kind = "rename"
	case event.Has(fsnotify.Remove):
		kind = "delete"
	default:
		return
	}
	fw.logger.Debug("sheet file event", zap.String("op", kind), zap.String("path", event.Name))

	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.pending = true
	fw.lastEvent = time.Now()
	fw.stats.Events++
	fw.stats.LastEventTime = fw.lastEvent
	fw.stats.LastEventType = kind
}

// due reports whether a pending burst has gone quiet, clearing it if so.
func (fw *FileWatcher) due() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.pending || time.Since(fw.lastEvent) < fw.debounce {
		return false
	}
	fw.pending = false
	fw.stats.Triggers++
	return true
}
