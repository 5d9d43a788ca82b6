package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushes to local path remotes go through git-receive-pack
func requireGitBinaries(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git-receive-pack"); err != nil {
		t.Skip("git-receive-pack not found in PATH")
	}
}

func initBareRemote(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "remote.git")
	_, err := gogit.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

func remoteBranchHash(t *testing.T, remotePath, branch string) string {
	t.Helper()
	repo, err := gogit.PlainOpen(remotePath)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	return ref.Hash().String()
}

func writeFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	abs := filepath.Join(dir, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestOpenInitializesRepo(t *testing.T) {
	remote := initBareRemote(t)
	work := filepath.Join(t.TempDir(), "work")

	c, err := Open(&Options{Path: work, RemoteURL: remote})
	require.NoError(t, err)

	assert.Equal(t, "main", c.Branch())
	assert.Equal(t, remote, c.RemoteURL())
	assert.DirExists(t, filepath.Join(work, ".git"))

	// reopening keeps the same remote and branch
	c2, err := Open(&Options{Path: work, RemoteURL: remote})
	require.NoError(t, err)
	assert.Equal(t, "main", c2.Branch())
	assert.Equal(t, remote, c2.RemoteURL())
}

func TestOpenCustomBranch(t *testing.T) {
	remote := initBareRemote(t)
	work := filepath.Join(t.TempDir(), "work")

	c, err := Open(&Options{Path: work, RemoteURL: remote, Branch: "sync"})
	require.NoError(t, err)
	assert.Equal(t, "sync", c.Branch())
}

func TestOpenWithoutRemoteFails(t *testing.T) {
	work := filepath.Join(t.TempDir(), "work")
	_, err := Open(&Options{Path: work})
	assert.Error(t, err)
}

func TestEnsureRemoteRepoints(t *testing.T) {
	remoteA := initBareRemote(t)
	remoteB := initBareRemote(t)
	work := filepath.Join(t.TempDir(), "work")

	c, err := Open(&Options{Path: work, RemoteURL: remoteA})
	require.NoError(t, err)
	assert.Equal(t, remoteA, c.RemoteURL())

	c, err = Open(&Options{Path: work, RemoteURL: remoteB})
	require.NoError(t, err)
	assert.Equal(t, remoteB, c.RemoteURL())
}

func TestCommitPaths(t *testing.T) {
	remote := initBareRemote(t)
	work := filepath.Join(t.TempDir(), "work")

	c, err := Open(&Options{Path: work, RemoteURL: remote, Name: "Test Bot", Email: "bot@test.local"})
	require.NoError(t, err)

	writeFile(t, work, "docs/notes.txt", "v1")
	hash, err := c.CommitPaths([]string{"docs/notes.txt"}, "Auto-commit: notes.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	head, err := c.Head()
	require.NoError(t, err)
	assert.Equal(t, hash, head)

	// identical content again is a no-op
	_, err = c.CommitPaths([]string{"docs/notes.txt"}, "Auto-commit: notes.txt")
	assert.ErrorIs(t, err, ErrNoChanges)

	// changed content commits again
	writeFile(t, work, "docs/notes.txt", "v2")
	hash2, err := c.CommitPaths([]string{"docs/notes.txt"}, "Auto-commit: notes.txt")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestPush(t *testing.T) {
	requireGitBinaries(t)

	remote := initBareRemote(t)
	work := filepath.Join(t.TempDir(), "work")

	c, err := Open(&Options{Path: work, RemoteURL: remote})
	require.NoError(t, err)

	writeFile(t, work, "a.txt", "hello")
	hash, err := c.CommitPaths([]string{"a.txt"}, "Auto-commit: a.txt")
	require.NoError(t, err)

	require.NoError(t, c.Push(context.Background()))
	assert.Equal(t, hash, remoteBranchHash(t, remote, "main"))

	// pushing again with nothing new is a success
	require.NoError(t, c.Push(context.Background()))
}

func TestPushConflict(t *testing.T) {
	requireGitBinaries(t)

	remote := initBareRemote(t)
	ctx := context.Background()

	workA := filepath.Join(t.TempDir(), "work-a")
	a, err := Open(&Options{Path: workA, RemoteURL: remote})
	require.NoError(t, err)
	writeFile(t, workA, "a.txt", "from a")
	_, err = a.CommitPaths([]string{"a.txt"}, "Auto-commit: a.txt")
	require.NoError(t, err)
	require.NoError(t, a.Push(ctx))

	// b never saw a's history, so its push must be rejected
	workB := filepath.Join(t.TempDir(), "work-b")
	b, err := Open(&Options{Path: workB, RemoteURL: remote})
	require.NoError(t, err)
	writeFile(t, workB, "b.txt", "from b")
	bHash, err := b.CommitPaths([]string{"b.txt"}, "Auto-commit: b.txt")
	require.NoError(t, err)

	err = b.Push(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindConflict, Kind(err))

	// the rejected working copy is intact: same HEAD, still committable
	head, err := b.Head()
	require.NoError(t, err)
	assert.Equal(t, bHash, head)

	writeFile(t, workB, "b2.txt", "more")
	_, err = b.CommitPaths([]string{"b2.txt"}, "Auto-commit: b2.txt")
	require.NoError(t, err)

	// the remote still holds a's commit
	repo, err := gogit.PlainOpen(remote)
	require.NoError(t, err)
	_, err = repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	require.NoError(t, err)
}
