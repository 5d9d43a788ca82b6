package sync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/pushbox/pushbox/internal/utils"
	"github.com/pushbox/pushbox/internal/workspace"
)

// ChangeKind says how a file entered the pending set.
type ChangeKind string

const (
	KindCreated  ChangeKind = "created"
	KindModified ChangeKind = "modified"
)

// FileMeta is the fingerprint of one file at observation time.
type FileMeta struct {
	Path         string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Change is one detected difference between two snapshots.
type Change struct {
	Path string
	Kind ChangeKind
	Meta *FileMeta
}

// Scanner walks a tree and produces content snapshots. Hashes are cached
// by size and mtime, so an unchanged file is never re-read on later scans.
type Scanner struct {
	rootDir   string
	ignore    *Ignore
	lastState map[string]*FileMeta
}

func NewScanner(rootDir string, ignore *Ignore) *Scanner {
	return &Scanner{
		rootDir:   rootDir,
		ignore:    ignore,
		lastState: make(map[string]*FileMeta),
	}
}

// Scan walks the tree and returns the current snapshot keyed by
// normalized relative path. Files that vanish mid-walk are skipped.
func (s *Scanner) Scan(ctx context.Context) (map[string]*FileMeta, error) {
	state := make(map[string]*FileMeta)

	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		rel, relErr := filepath.Rel(s.rootDir, path)
		if relErr != nil {
			return relErr
		}
		relPath := workspace.NormPath(rel)

		if d.IsDir() {
			if s.ignore.ShouldSkipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.ignore.ShouldSkip(relPath) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			if os.IsNotExist(infoErr) {
				return nil
			}
			return infoErr
		}

		if cached, ok := s.lastState[relPath]; ok &&
			cached.Size == info.Size() && cached.LastModified.Equal(info.ModTime()) {
			state[relPath] = cached
			return nil
		}

		etag, hashErr := utils.FileHash(path)
		if hashErr != nil {
			if os.IsNotExist(hashErr) {
				return nil
			}
			slog.Warn("hash failed, skipping file", "path", relPath, "error", hashErr)
			return nil
		}

		state[relPath] = &FileMeta{
			Path:         relPath,
			Size:         info.Size(),
			ETag:         etag,
			LastModified: info.ModTime(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lastState = state
	return state, nil
}

// Diff compares two snapshots and returns created and modified files
// sorted by path. Paths present only in prev are deliberately absent
// from the result: deletions are never synced.
func Diff(prev, next map[string]*FileMeta) []Change {
	prevPaths := mapset.NewSet[string]()
	for p := range prev {
		prevPaths.Add(p)
	}
	nextPaths := mapset.NewSet[string]()
	for p := range next {
		nextPaths.Add(p)
	}

	changes := make([]Change, 0)
	for p := range nextPaths.Difference(prevPaths).Iter() {
		changes = append(changes, Change{Path: p, Kind: KindCreated, Meta: next[p]})
	}
	for p := range nextPaths.Intersect(prevPaths).Iter() {
		if next[p].ETag != prev[p].ETag {
			changes = append(changes, Change{Path: p, Kind: KindModified, Meta: next[p]})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}
