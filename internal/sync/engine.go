package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rjeczalik/notify"

	"github.com/pushbox/pushbox/internal/git"
	"github.com/pushbox/pushbox/internal/history"
	"github.com/pushbox/pushbox/internal/utils"
	"github.com/pushbox/pushbox/internal/workspace"
)

// ErrSyncAlreadyRunning means a cycle was requested while one is active.
var ErrSyncAlreadyRunning = errors.New("sync already running")

var errIsDirectory = errors.New("path is a directory")

// Committer is the slice of the git client the engine drives.
type Committer interface {
	CommitPaths(paths []string, message string) (string, error)
	Push(ctx context.Context) error
}

// EngineOpts wires an Engine. Mode, SourceDir, Workspace, Git and Ignore
// are required; Watcher is required for the event modes and Stager for
// relay. History is optional.
type EngineOpts struct {
	Mode      Mode
	SourceDir string
	Workspace *workspace.Workspace
	Git       Committer
	History   *history.Store
	Ignore    *Ignore
	Watcher   *FileWatcher
	Stager    *Stager
	Interval  time.Duration
	Retry     time.Duration
}

// Engine runs the sync loop for one mode. All commits and pushes happen
// on a single worker; overlapping cycle requests are rejected with
// ErrSyncAlreadyRunning and picked up by the next tick.
type Engine struct {
	mode      Mode
	sourceDir string
	ws        *workspace.Workspace
	git       Committer
	hist      *history.Store
	ignore    *Ignore
	scanner   *Scanner
	watcher   *FileWatcher
	stager    *Stager
	tracker   *Tracker
	interval  time.Duration
	retry     time.Duration

	prev   map[string]*FileMeta
	muSync stdsync.Mutex
	wg     stdsync.WaitGroup
}

func NewEngine(opts *EngineOpts) (*Engine, error) {
	if opts.SourceDir == "" || opts.Workspace == nil || opts.Git == nil || opts.Ignore == nil {
		return nil, errors.New("engine: missing required dependency")
	}
	switch opts.Mode {
	case ModePoll:
	case ModeWatch, ModeRelay:
		if opts.Watcher == nil {
			return nil, errors.New("engine: watcher required for event modes")
		}
		if opts.Mode == ModeRelay && opts.Stager == nil {
			return nil, errors.New("engine: stager required for relay mode")
		}
	default:
		return nil, fmt.Errorf("engine: unknown mode %q", opts.Mode)
	}

	e := &Engine{
		mode:      opts.Mode,
		sourceDir: filepath.Clean(opts.SourceDir),
		ws:        opts.Workspace,
		git:       opts.Git,
		hist:      opts.History,
		ignore:    opts.Ignore,
		watcher:   opts.Watcher,
		stager:    opts.Stager,
		tracker:   NewTracker(),
		interval:  opts.Interval,
		retry:     opts.Retry,
	}
	if e.interval <= 0 {
		e.interval = 3 * time.Second
	}
	if e.retry <= 0 {
		e.retry = 30 * time.Second
	}
	if e.mode == ModePoll {
		e.scanner = NewScanner(e.sourceDir, e.ignore)
	}
	if e.watcher != nil {
		e.watcher.FilterPaths(e.filterEventPath)
	}
	return e, nil
}

// Start captures the baseline and spawns the mode's loops. It returns
// once the engine is running; Stop shuts it down.
func (e *Engine) Start(ctx context.Context) error {
	slog.Info("sync engine start",
		"mode", e.mode,
		"source", e.sourceDir,
		"workdir", e.ws.Root,
	)

	switch e.mode {
	case ModePoll:
		// Existing files form the baseline; only what changes afterwards
		// gets committed. Restarting drops the previous tracking state.
		e.tracker.Reset()
		snapshot, err := e.scanner.Scan(ctx)
		if err != nil {
			return fmt.Errorf("baseline scan: %w", err)
		}
		e.prev = snapshot
		slog.Info("baseline captured", "files", len(snapshot), "interval", e.interval)

		e.wg.Add(1)
		go e.pollLoop(ctx)

	case ModeWatch, ModeRelay:
		if err := e.watcher.Start(ctx); err != nil {
			return fmt.Errorf("file watcher: %w", err)
		}

		e.wg.Add(1)
		go e.consumeEvents(ctx)

		e.wg.Add(1)
		go e.retryLoop(ctx)
	}

	return nil
}

// Stop shuts the loops down and waits for them to drain.
func (e *Engine) Stop() {
	if e.watcher != nil {
		e.watcher.Stop()
	}
	e.wg.Wait()
	slog.Info("sync engine stopped", "mode", e.mode)
}

// Tracker exposes the entry table, mainly for status reporting.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// filterEventPath drops raw watcher events for excluded paths before
// they enter the debounce window.
func (e *Engine) filterEventPath(absPath string) bool {
	relPath, err := e.relSourcePath(absPath)
	if err != nil {
		return true
	}
	return e.ignore.ShouldSkip(relPath)
}

func (e *Engine) relSourcePath(absPath string) (string, error) {
	rel, err := filepath.Rel(e.sourceDir, absPath)
	if err != nil {
		return "", err
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s outside source tree", absPath)
	}
	return workspace.NormPath(rel), nil
}

func (e *Engine) pollLoop(ctx context.Context) {
	defer e.wg.Done()

	// A timer instead of a ticker so a slow cycle never stacks the next
	// one behind it.
	timer := time.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll loop done")
			return
		case <-timer.C:
			if err := e.pollOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("sync cycle", "error", err)
			}
			timer.Reset(e.interval)
		}
	}
}

func (e *Engine) pollOnce(ctx context.Context) error {
	snapshot, err := e.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	changes := Diff(e.prev, snapshot)
	e.prev = snapshot

	for _, change := range changes {
		slog.Info("change detected", "path", change.Path, "kind", change.Kind)
		e.tracker.Observe(change)
	}

	if e.tracker.PendingCount() == 0 {
		return nil
	}
	return e.runCycle(ctx)
}

func (e *Engine) consumeEvents(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.watcher.Events():
			if !ok {
				return
			}
			e.handleEvent(ctx, event)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, event notify.EventInfo) {
	relPath, err := e.relSourcePath(event.Path())
	if err != nil {
		return
	}
	if e.ignore.ShouldSkip(relPath) {
		return
	}

	meta, err := fileMetaAt(event.Path(), relPath)
	if err != nil {
		// Renames and short-lived temp files routinely vanish between the
		// event and the stat.
		if os.IsNotExist(err) || errors.Is(err, errIsDirectory) {
			slog.Debug("event skipped", "path", relPath, "reason", err)
		} else {
			slog.Warn("event stat failed", "path", relPath, "error", err)
		}
		return
	}

	if e.mode == ModeRelay && e.stager.AlreadyStaged(relPath, meta.LastModified) {
		slog.Debug("duplicate event", "path", relPath)
		return
	}

	kind := KindModified
	if event.Event()&(notify.Create|notify.Rename) != 0 {
		kind = KindCreated
	}
	slog.Info("change detected", "path", relPath, "kind", kind,
		"size", humanize.Bytes(uint64(meta.Size)))
	e.tracker.Observe(Change{Path: relPath, Kind: kind, Meta: meta})

	if err := e.runCycle(ctx); err != nil &&
		!errors.Is(err, ErrSyncAlreadyRunning) && !errors.Is(err, context.Canceled) {
		slog.Error("sync cycle", "error", err)
	}
}

func (e *Engine) retryLoop(ctx context.Context) {
	defer e.wg.Done()

	timer := time.NewTimer(e.retry)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retry loop done")
			return
		case <-timer.C:
			if n := e.tracker.PendingCount(); n > 0 {
				slog.Info("retrying pending files", "count", n)
				if err := e.runCycle(ctx); err != nil &&
					!errors.Is(err, ErrSyncAlreadyRunning) && !errors.Is(err, context.Canceled) {
					slog.Error("retry cycle", "error", err)
				}
			}
			timer.Reset(e.retry)
		}
	}
}

// runCycle claims pending entries and syncs them. Poll mode commits the
// whole claim as one batch; event modes commit file by file.
func (e *Engine) runCycle(ctx context.Context) error {
	if !e.muSync.TryLock() {
		return ErrSyncAlreadyRunning
	}
	defer e.muSync.Unlock()

	entries := e.tracker.TakePending()
	if len(entries) == 0 {
		return nil
	}

	if e.mode == ModePoll {
		return e.commitBatch(ctx, entries)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			e.tracker.MarkFailed(entry.Path, err)
			continue
		}
		e.commitOne(ctx, entry)
	}
	return nil
}

// commitOne stages (relay only), commits and pushes a single entry.
func (e *Engine) commitOne(ctx context.Context, entry *Entry) {
	if e.mode == ModeRelay {
		if err := e.stager.Stage(entry.Path); err != nil {
			slog.Error("stage failed", "path", entry.Path, "error", err)
			e.tracker.MarkFailed(entry.Path, err)
			e.recordAttempt(entry, "", err)
			return
		}
	}

	meta, err := fileMetaAt(e.ws.AbsPath(entry.Path), entry.Path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("file vanished before commit", "path", entry.Path)
			e.tracker.Drop(entry.Path)
			return
		}
		e.tracker.MarkFailed(entry.Path, err)
		e.recordAttempt(entry, "", err)
		return
	}

	message := commitMessage(e.mode, []*Entry{entry})
	hash, err := e.git.CommitPaths([]string{entry.Path}, message)
	if err != nil && !errors.Is(err, git.ErrNoChanges) {
		slog.Error("commit failed", "path", entry.Path, "error", err)
		e.tracker.MarkFailed(entry.Path, err)
		e.recordAttempt(entry, "", err)
		return
	}

	if err := e.git.Push(ctx); err != nil {
		slog.Error("push failed", "path", entry.Path, "kind", git.Kind(err), "error", err)
		e.tracker.MarkFailed(entry.Path, err)
		e.recordAttempt(entry, hash, err)
		return
	}

	if e.tracker.MarkSynced(entry.Path, meta.ETag) {
		slog.Info("synced", "path", entry.Path, "commit", hash,
			"size", humanize.Bytes(uint64(meta.Size)))
	} else {
		slog.Info("file changed during sync, kept pending", "path", entry.Path)
	}
	e.recordAttempt(entry, hash, nil)
}

// commitBatch commits every claimed entry in one commit, then pushes.
func (e *Engine) commitBatch(ctx context.Context, entries []*Entry) error {
	live := make([]*Entry, 0, len(entries))
	etags := make(map[string]string, len(entries))
	paths := make([]string, 0, len(entries))

	for _, entry := range entries {
		meta, err := fileMetaAt(e.ws.AbsPath(entry.Path), entry.Path)
		if err != nil {
			if os.IsNotExist(err) || errors.Is(err, errIsDirectory) {
				slog.Debug("file vanished before commit", "path", entry.Path)
				e.tracker.Drop(entry.Path)
				continue
			}
			e.tracker.MarkFailed(entry.Path, err)
			e.recordAttempt(entry, "", err)
			continue
		}
		live = append(live, entry)
		etags[entry.Path] = meta.ETag
		paths = append(paths, entry.Path)
	}
	if len(live) == 0 {
		return nil
	}

	message := commitMessage(e.mode, live)
	hash, err := e.git.CommitPaths(paths, message)
	if err != nil && !errors.Is(err, git.ErrNoChanges) {
		for _, entry := range live {
			e.tracker.MarkFailed(entry.Path, err)
			e.recordAttempt(entry, "", err)
		}
		return fmt.Errorf("commit: %w", err)
	}

	if err := e.git.Push(ctx); err != nil {
		for _, entry := range live {
			e.tracker.MarkFailed(entry.Path, err)
			e.recordAttempt(entry, hash, err)
		}
		return fmt.Errorf("push: %w", err)
	}

	for _, entry := range live {
		if e.tracker.MarkSynced(entry.Path, etags[entry.Path]) {
			slog.Info("synced", "path", entry.Path, "commit", hash)
		}
		e.recordAttempt(entry, hash, nil)
	}
	slog.Info("sync cycle complete", "files", len(live), "commit", hash)
	return nil
}

func (e *Engine) recordAttempt(entry *Entry, hash string, attemptErr error) {
	if e.hist == nil {
		return
	}
	attempt := &history.Attempt{
		Mode:       e.mode.String(),
		Path:       entry.Path,
		Kind:       string(entry.Kind),
		Outcome:    history.OutcomeSynced,
		CommitHash: hash,
	}
	if attemptErr != nil {
		attempt.Outcome = history.OutcomeRetry
		attempt.Error = attemptErr.Error()
		attempt.ErrorKind = errorKind(attemptErr)
	}
	if err := e.hist.Record(attempt); err != nil {
		slog.Warn("history record failed", "path", entry.Path, "error", err)
	}
}

func errorKind(err error) string {
	var copyErr *CopyError
	if errors.As(err, &copyErr) {
		return "copy"
	}
	return git.Kind(err)
}

// commitMessage renders the mode's message. Event modes name the single
// file; poll lists every path in the batch.
func commitMessage(mode Mode, entries []*Entry) string {
	switch mode {
	case ModeWatch:
		return "Auto-commit: " + path.Base(entries[0].Path)
	case ModeRelay:
		return "Auto-commit from network: " + path.Base(entries[0].Path)
	default:
		paths := make([]string, len(entries))
		allCreated := true
		for i, entry := range entries {
			paths[i] = entry.Path
			if entry.Kind != KindCreated {
				allCreated = false
			}
		}
		if allCreated {
			return "Auto-commit new files: " + strings.Join(paths, ", ")
		}
		return "Auto-commit changes: " + strings.Join(paths, ", ")
	}
}

func fileMetaAt(absPath, relPath string) (*FileMeta, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errIsDirectory
	}
	etag, err := utils.FileHash(absPath)
	if err != nil {
		return nil, err
	}
	return &FileMeta{
		Path:         relPath,
		Size:         info.Size(),
		ETag:         etag,
		LastModified: info.ModTime(),
	}, nil
}
