package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/pushbox/pushbox/internal/utils"
)

const (
	metadataDir = ".pushbox"
	logsDir     = "logs"
	lockFile    = "pushbox.lock"
	historyFile = "history.db"
)

// MetadataDirName is the per-tree metadata directory. It lives inside the
// working copy, so change detection must always skip it.
const MetadataDirName = metadataDir

var (
	ErrWorkspaceLocked = errors.New("workspace locked by another process")
)

// Workspace is the working copy root plus the pushbox metadata that rides
// along with it (lock file, logs, attempt history).
type Workspace struct {
	Root        string
	MetadataDir string
	LogsDir     string

	flock *flock.Flock
}

func New(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	metaDir := filepath.Join(root, metadataDir)

	return &Workspace{
		Root:        root,
		MetadataDir: metaDir,
		LogsDir:     filepath.Join(metaDir, logsDir),
		flock:       flock.New(filepath.Join(metaDir, lockFile)),
	}, nil
}

// Setup creates the workspace directories and takes the instance lock.
func (w *Workspace) Setup() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.Root, err)
	}

	if err := w.Lock(); err != nil {
		return err
	}

	if err := utils.EnsureDir(w.LogsDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.LogsDir, err)
	}

	return nil
}

func (w *Workspace) Lock() error {
	// the lock file lives under .pushbox so that other pushbox instances
	// cannot claim the same working copy
	if err := utils.EnsureDir(w.MetadataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.MetadataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}

	return nil
}

func (w *Workspace) Unlock() error {
	// if this process hasn't locked the workspace, don't delete the lock file
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock workspace: %w", err)
	}

	return os.Remove(w.flock.Path())
}

// HistoryDBPath is where the sync attempt log lives.
func (w *Workspace) HistoryDBPath() string {
	return filepath.Join(w.MetadataDir, historyFile)
}

// AbsPath returns the absolute path of a workspace-relative path.
func (w *Workspace) AbsPath(relPath string) string {
	return filepath.Join(w.Root, relPath)
}

// RelPath returns the slash-normalized path of absPath relative to the root.
func (w *Workspace) RelPath(absPath string) (string, error) {
	relPath, err := filepath.Rel(w.Root, absPath)
	if err != nil {
		return "", err
	}
	return NormPath(relPath), nil
}

// NormPath normalizes a path by cleaning it, replacing backslashes with
// slashes, and trimming leading slashes.
func NormPath(path string) string {
	path = filepath.Clean(path)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	return path
}
