package sync

import (
	"sort"
	stdsync "sync"
	"time"
)

// EntryState is the lifecycle position of a tracked file.
type EntryState uint8

const (
	// StatePending means a change was observed and not yet synced.
	StatePending EntryState = iota
	// StateCommitting means a sync cycle is working on the entry.
	StateCommitting
	// StateSynced means commit and push succeeded for the observed revision.
	StateSynced
)

var entryStateNames = []string{"pending", "committing", "synced"}

func (s EntryState) String() string {
	if int(s) < len(entryStateNames) {
		return entryStateNames[s]
	}
	return "unknown"
}

// Entry is one tracked file. Meta holds the fingerprint of the newest
// observed revision; the entry only reaches StateSynced once that exact
// revision has been committed and pushed.
type Entry struct {
	Path      string
	Kind      ChangeKind
	Meta      *FileMeta
	State     EntryState
	Attempts  int
	LastError string
	SyncedAt  time.Time
}

// Tracker owns the entry table. All transitions go through its methods;
// callers never mutate returned entries.
type Tracker struct {
	mu      stdsync.Mutex
	entries map[string]*Entry
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*Entry)}
}

// Observe upserts an entry for a detected change. A revision that is
// already synced is ignored; anything else moves the entry to pending
// with the fresh fingerprint, superseding any in-flight commit.
func (t *Tracker) Observe(change Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[change.Path]
	if !ok {
		t.entries[change.Path] = &Entry{
			Path:  change.Path,
			Kind:  change.Kind,
			Meta:  change.Meta,
			State: StatePending,
		}
		return
	}

	if entry.State == StateSynced {
		if entry.Meta.ETag == change.Meta.ETag {
			return
		}
		entry.Kind = KindModified
	}
	entry.Meta = change.Meta
	entry.State = StatePending
}

// TakePending claims every pending entry for one sync cycle. Claimed
// entries move to committing and are returned as copies sorted by path.
func (t *Tracker) TakePending() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	claimed := make([]*Entry, 0)
	for _, entry := range t.entries {
		if entry.State != StatePending {
			continue
		}
		entry.State = StateCommitting
		snapshot := *entry
		claimed = append(claimed, &snapshot)
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].Path < claimed[j].Path })
	return claimed
}

// MarkSynced finishes a successful cycle for one path. The transition
// only happens when etag still matches the newest observed revision;
// otherwise the entry stays pending and the next cycle picks it up.
func (t *Tracker) MarkSynced(path, etag string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[path]
	if !ok {
		return false
	}
	entry.Attempts++
	if entry.Meta.ETag != etag {
		if entry.State == StateCommitting {
			entry.State = StatePending
		}
		return false
	}
	entry.State = StateSynced
	entry.LastError = ""
	entry.SyncedAt = time.Now()
	return true
}

// MarkFailed returns a claimed entry to pending after a failed attempt.
func (t *Tracker) MarkFailed(path string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[path]
	if !ok {
		return
	}
	entry.Attempts++
	if err != nil {
		entry.LastError = err.Error()
	}
	if entry.State == StateCommitting {
		entry.State = StatePending
	}
}

// Drop removes an entry whose file vanished before it could be synced.
func (t *Tracker) Drop(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, path)
}

// Reset drops every tracked entry. Used when the engine re-baselines the
// watched tree on start.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.entries)
}

// Get returns a copy of the entry for path.
func (t *Tracker) Get(path string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[path]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// PendingCount reports how many entries are waiting for a sync cycle.
func (t *Tracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, entry := range t.entries {
		if entry.State == StatePending {
			n++
		}
	}
	return n
}

// Len reports the total number of tracked entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
