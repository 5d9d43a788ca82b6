package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/rjeczalik/notify"
)

const (
	eventBufferSize        = 64
	defaultDebounceTimeout = 500 * time.Millisecond
)

// FilterFunc returns true if a raw event path should be dropped before
// debouncing.
type FilterFunc func(path string) bool

// FileWatcher subscribes to recursive filesystem notifications on one
// tree and emits debounced per-path events. A burst of writes to the
// same file collapses into a single event carrying the last one.
type FileWatcher struct {
	watchDir string

	events    chan notify.EventInfo
	rawEvents chan notify.EventInfo
	done      chan struct{}
	wg        stdsync.WaitGroup

	pendingEvents   map[string]notify.EventInfo
	eventTimers     map[string]*time.Timer
	debounceMu      stdsync.Mutex
	debounceTimeout time.Duration

	filter   FilterFunc
	filterMu stdsync.RWMutex
}

func NewFileWatcher(watchDir string) *FileWatcher {
	return &FileWatcher{
		watchDir:        watchDir,
		done:            make(chan struct{}),
		pendingEvents:   make(map[string]notify.EventInfo),
		eventTimers:     make(map[string]*time.Timer),
		debounceTimeout: defaultDebounceTimeout,
	}
}

// SetDebounceTimeout overrides how long a path must stay quiet before
// its event is emitted.
func (fw *FileWatcher) SetDebounceTimeout(timeout time.Duration) {
	if timeout > 0 {
		fw.debounceTimeout = timeout
	}
}

// FilterPaths installs a callback that drops raw events before they
// enter the debounce window. The callback returns true to drop.
func (fw *FileWatcher) FilterPaths(filter FilterFunc) {
	fw.filterMu.Lock()
	defer fw.filterMu.Unlock()
	fw.filter = filter
}

func (fw *FileWatcher) Start(ctx context.Context) error {
	slog.Info("file watcher start", "dir", fw.watchDir, "debounce", fw.debounceTimeout)

	fw.rawEvents = make(chan notify.EventInfo, eventBufferSize)
	fw.events = make(chan notify.EventInfo, eventBufferSize)

	recursivePath := fw.watchDir + "/..."
	if err := notify.Watch(recursivePath, fw.rawEvents, notify.Create|notify.Write|notify.Rename); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.filterEvents(ctx)

	return nil
}

func (fw *FileWatcher) Stop() {
	slog.Info("file watcher stopping")

	close(fw.done)

	// notify.Stop closes the raw channel for us
	if fw.rawEvents != nil {
		notify.Stop(fw.rawEvents)
	}

	fw.wg.Wait()

	slog.Info("file watcher stopped")
}

// Events is the debounced event stream. The channel closes after Stop.
func (fw *FileWatcher) Events() <-chan notify.EventInfo {
	return fw.events
}

func (fw *FileWatcher) shouldDrop(path string) bool {
	fw.filterMu.RLock()
	defer fw.filterMu.RUnlock()
	return fw.filter != nil && fw.filter(path)
}

// filterEvents drops filtered paths, debounces the rest, and forwards
// them to the events channel.
func (fw *FileWatcher) filterEvents(ctx context.Context) {
	defer func() {
		slog.Debug("file watcher filter events done")

		// Cancel all pending timers and flush whatever was still waiting
		fw.debounceMu.Lock()
		for path, timer := range fw.eventTimers {
			timer.Stop()
			if event, exists := fw.pendingEvents[path]; exists {
				select {
				case fw.events <- event:
					slog.Debug("file watcher flushing pending event on exit", "event", event)
				default:
					slog.Warn("file watcher channel full during exit, dropping event", "path", path)
				}
			}
		}
		fw.debounceMu.Unlock()

		fw.wg.Done()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.rawEvents:
			if !ok {
				return
			}

			if fw.shouldDrop(event.Path()) {
				continue
			}

			// On linux a single save triggers a burst of inotify WRITE
			// events until the file is fully written. Debouncing trades a
			// small added latency for one event per settled file.
			fw.debounceEvent(event)
		}
	}
}

func (fw *FileWatcher) debounceEvent(event notify.EventInfo) {
	path := event.Path()

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.eventTimers[path]; exists {
		timer.Stop()
		delete(fw.eventTimers, path)
	}

	fw.pendingEvents[path] = event

	timer := time.AfterFunc(fw.debounceTimeout, func() {
		fw.flushEvent(path)
	})

	fw.eventTimers[path] = timer
}

// flushEvent sends the pending event for a path and cleans up
func (fw *FileWatcher) flushEvent(path string) {
	fw.debounceMu.Lock()
	event, exists := fw.pendingEvents[path]
	if !exists {
		fw.debounceMu.Unlock()
		return
	}

	delete(fw.pendingEvents, path)
	delete(fw.eventTimers, path)
	fw.debounceMu.Unlock()

	select {
	case fw.events <- event:
		slog.Debug("file watcher", "event", event.Event(), "path", path)
	default:
		slog.Warn("file watcher dropped", "reason", "channel full", "path", path)
	}
}
