package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormPath(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty-is-local-dir", "", "."},
		{"unix-relative", "./path/to/test/path", "path/to/test/path"},
		{"unix-absolute", "/var/lib/check/path", "var/lib/check/path"},
		{"windows-relative", "\\folder\\user\\test.txt", "folder/user/test.txt"},
		{"windows-absolute", "C:\\windows\\system32\\test.txt", "C:/windows/system32/test.txt"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, NormPath(c.input))
		})
	}
}

func TestWorkspaceSetup(t *testing.T) {
	root := filepath.Join(t.TempDir(), "copy")

	w, err := New(root)
	require.NoError(t, err)

	require.NoError(t, w.Setup())
	t.Cleanup(func() { _ = w.Unlock() })

	assert.DirExists(t, w.Root)
	assert.DirExists(t, w.MetadataDir)
	assert.DirExists(t, w.LogsDir)
	assert.Equal(t, filepath.Join(w.MetadataDir, "history.db"), w.HistoryDBPath())
}

func TestWorkspaceRelPath(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	require.NoError(t, err)

	rel, err := w.RelPath(filepath.Join(w.Root, "docs", "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "docs/readme.md", rel)

	assert.Equal(t, filepath.Join(w.Root, "docs", "readme.md"), w.AbsPath("docs/readme.md"))
}

func TestWorkspaceLocking(t *testing.T) {
	root := t.TempDir()

	w1, err := New(root)
	require.NoError(t, err)
	w2, err := New(root)
	require.NoError(t, err)

	require.NoError(t, w1.Lock())

	err = w2.Lock()
	require.ErrorIs(t, err, ErrWorkspaceLocked)

	lockPath := filepath.Join(root, ".pushbox", "pushbox.lock")
	assert.FileExists(t, lockPath)

	require.NoError(t, w1.Unlock())
	_, statErr := os.Stat(lockPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)

	require.NoError(t, w2.Lock())
	t.Cleanup(func() { _ = w2.Unlock() })
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Unlock())
}
