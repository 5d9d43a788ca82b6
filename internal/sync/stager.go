package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pushbox/pushbox/internal/utils"
)

// ErrNestedStagingDirs rejects source and working copy layouts where one
// tree contains the other. Relaying into a nested tree would re-trigger
// the watcher or commit the watched source wholesale.
var ErrNestedStagingDirs = errors.New("source and working copy must not contain each other")

const dedupeCacheSize = 1024

// CopyError wraps a failed staging copy with both endpoints.
type CopyError struct {
	Src string
	Dst string
	Err error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// Stager copies files from a watched source tree into the git working
// copy, preserving the relative layout. Revisions already staged recently
// are remembered in a TTL cache so duplicate events do not restage.
type Stager struct {
	sourceDir string
	workDir   string
	seen      *expirable.LRU[string, struct{}]
}

// NewStager validates the directory pair and builds the stager. The
// dedupe window is ttl; entries fall out on their own after that.
func NewStager(sourceDir, workDir string, ttl time.Duration) (*Stager, error) {
	src := filepath.Clean(sourceDir)
	work := filepath.Clean(workDir)
	if src == work || containsPath(src, work) || containsPath(work, src) {
		return nil, ErrNestedStagingDirs
	}
	return &Stager{
		sourceDir: src,
		workDir:   work,
		seen:      expirable.NewLRU[string, struct{}](dedupeCacheSize, nil, ttl),
	}, nil
}

// AlreadyStaged reports whether this exact revision of relPath was staged
// within the dedupe window, and records it if not.
func (s *Stager) AlreadyStaged(relPath string, modTime time.Time) bool {
	key := fmt.Sprintf("%s:%d", relPath, modTime.UnixNano())
	if s.seen.Contains(key) {
		return true
	}
	s.seen.Add(key, struct{}{})
	return false
}

// Stage copies source/relPath into the working copy at the same relative
// location, creating parent directories as needed.
func (s *Stager) Stage(relPath string) error {
	src := filepath.Join(s.sourceDir, filepath.FromSlash(relPath))
	dst := filepath.Join(s.workDir, filepath.FromSlash(relPath))

	if err := utils.CopyFile(src, dst); err != nil {
		return &CopyError{Src: src, Dst: dst, Err: err}
	}

	if info, err := os.Stat(dst); err == nil {
		slog.Debug("staged file", "path", relPath, "size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func containsPath(parent, child string) bool {
	return strings.HasPrefix(child, parent+string(os.PathSeparator))
}
