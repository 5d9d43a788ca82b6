// Package git wraps go-git with the handful of operations pushbox needs:
// open or bootstrap a working copy, stage and commit paths, and push the
// current branch to origin with token auth.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	// DefaultBranch is used when bootstrapping a fresh working copy.
	DefaultBranch = "main"

	// fallback commit identity; modes override this with their own bot
	DefaultCommitName  = "PushBox"
	DefaultCommitEmail = "pushbox@automated.com"
)

// Options configures a Client.
type Options struct {
	// Path is the working copy root. Created and initialized when it is
	// not a repository yet.
	Path string

	// RemoteURL is the push target. Stored as the origin remote, never
	// with credentials embedded. Optional if the repo already has one.
	RemoteURL string

	// Branch to push to. Defaults to the current HEAD branch, or
	// DefaultBranch on a fresh init.
	Branch string

	// Token authenticates pushes to http(s) remotes.
	Token string

	// Commit identity.
	Name  string
	Email string
}

// Client owns a single working copy.
type Client struct {
	repo      *gogit.Repository
	path      string
	remoteURL string
	branch    string
	token     string
	name      string
	email     string
}

// Open opens the working copy at opts.Path, initializing it when needed,
// and makes sure the origin remote points at opts.RemoteURL.
func Open(opts *Options) (*Client, error) {
	if opts.Path == "" {
		return nil, errors.New("working copy path is required")
	}

	name := opts.Name
	if name == "" {
		name = DefaultCommitName
	}
	email := opts.Email
	if email == "" {
		email = DefaultCommitEmail
	}

	repo, err := gogit.PlainOpen(opts.Path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		branch := opts.Branch
		if branch == "" {
			branch = DefaultBranch
		}
		repo, err = gogit.PlainInitWithOptions(opts.Path, &gogit.PlainInitOptions{
			InitOptions: gogit.InitOptions{
				DefaultBranch: plumbing.NewBranchReferenceName(branch),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("init repository %s: %w", opts.Path, err)
		}
		slog.Info("initialized repository", "path", opts.Path, "branch", branch)
	} else if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", opts.Path, err)
	}

	c := &Client{
		repo:  repo,
		path:  opts.Path,
		token: opts.Token,
		name:  name,
		email: email,
	}

	if err := c.ensureRemote(opts.RemoteURL); err != nil {
		return nil, err
	}

	c.branch = opts.Branch
	if c.branch == "" {
		c.branch = c.headBranch()
	}

	return c, nil
}

// ensureRemote creates or updates origin so it matches the requested URL.
func (c *Client) ensureRemote(remoteURL string) error {
	remote, err := c.repo.Remote(gogit.DefaultRemoteName)
	switch {
	case errors.Is(err, gogit.ErrRemoteNotFound):
		if remoteURL == "" {
			return errors.New("repository has no origin remote and no remote url was given")
		}
		if _, err := c.repo.CreateRemote(&config.RemoteConfig{
			Name: gogit.DefaultRemoteName,
			URLs: []string{remoteURL},
		}); err != nil {
			return fmt.Errorf("create remote: %w", err)
		}
		c.remoteURL = remoteURL
		slog.Debug("created origin remote", "url", remoteURL)
		return nil

	case err != nil:
		return fmt.Errorf("lookup remote: %w", err)
	}

	current := ""
	if urls := remote.Config().URLs; len(urls) > 0 {
		current = urls[0]
	}

	if remoteURL == "" || remoteURL == current {
		c.remoteURL = current
		return nil
	}

	// remote url drifted, repoint it
	if err := c.repo.DeleteRemote(gogit.DefaultRemoteName); err != nil {
		return fmt.Errorf("delete remote: %w", err)
	}
	if _, err := c.repo.CreateRemote(&config.RemoteConfig{
		Name: gogit.DefaultRemoteName,
		URLs: []string{remoteURL},
	}); err != nil {
		return fmt.Errorf("update remote: %w", err)
	}
	c.remoteURL = remoteURL
	slog.Info("updated origin remote", "old", current, "new", remoteURL)
	return nil
}

// headBranch resolves the branch HEAD points at, even before the first
// commit. Falls back to DefaultBranch on a detached HEAD.
func (c *Client) headBranch() string {
	ref, err := c.repo.Reference(plumbing.HEAD, false)
	if err == nil && ref.Type() == plumbing.SymbolicReference {
		return ref.Target().Short()
	}
	return DefaultBranch
}

// Path returns the working copy root.
func (c *Client) Path() string {
	return c.path
}

// Branch returns the push target branch.
func (c *Client) Branch() string {
	return c.branch
}

// RemoteURL returns the origin URL (without credentials).
func (c *Client) RemoteURL() string {
	return c.remoteURL
}

// Head returns the current HEAD commit hash.
func (c *Client) Head() (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// CommitPaths stages the given workspace-relative paths and commits them.
// Returns ErrNoChanges when the index already matches HEAD.
func (c *Client) CommitPaths(paths []string, message string) (string, error) {
	wt, err := c.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return "", fmt.Errorf("stage %s: %w", p, err)
		}
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  c.name,
			Email: c.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		if errors.Is(err, gogit.ErrEmptyCommit) {
			return "", ErrNoChanges
		}
		return "", fmt.Errorf("commit: %w", err)
	}

	return hash.String(), nil
}

// Push sends HEAD to the configured branch on origin. An up-to-date remote
// is a success.
func (c *Client) Push(ctx context.Context) error {
	head, err := c.repo.Head()
	if err != nil {
		return fmt.Errorf("push: resolve HEAD: %w", err)
	}

	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", head.Name(), plumbing.NewBranchReferenceName(c.branch)))
	pushOpts := &gogit.PushOptions{
		RemoteName: gogit.DefaultRemoteName,
		RefSpecs:   []config.RefSpec{refSpec},
	}
	if auth := c.authMethod(); auth != nil {
		pushOpts.Auth = auth
	}

	if err := c.repo.PushContext(ctx, pushOpts); err != nil {
		if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("push %s: %w", c.branch, Classify(err))
	}

	return nil
}

// authMethod builds basic auth for http(s) remotes. GitHub accepts any
// username with a personal access token as the password. Local path remotes
// need no auth.
func (c *Client) authMethod() transport.AuthMethod {
	if c.token == "" || !IsRemoteURL(c.remoteURL) {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "git",
		Password: c.token,
	}
}
