// Package config holds the runtime configuration shared by the pushbox
// commands: which tree to watch, which repository to push to, and how the
// GitHub token is resolved.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pushbox/pushbox/internal/git"
	"github.com/pushbox/pushbox/internal/utils"
)

var (
	home, _ = os.UserHomeDir()

	// DefaultConfigPath is where the poll command looks for its config file.
	DefaultConfigPath = filepath.Join(home, ".pushbox", "config.json")
)

const (
	// DefaultPollInterval is how often the poller rescans the tree.
	DefaultPollInterval = 3 * time.Second

	// DefaultDebounce is the quiet period after the last filesystem event
	// before a file is considered settled.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultRetryInterval is how often pending entries are re-attempted
	// when no new events arrive.
	DefaultRetryInterval = 30 * time.Second

	// real GitHub tokens are far longer than this
	minTokenLen = 10
)

// Config is the validated runtime configuration for a single pushbox
// process.
type Config struct {
	// SourceDir is the tree being watched for changes. In relay setups this
	// is the network share; otherwise it is the working copy itself.
	SourceDir string

	// WorkDir is the git working copy changes are committed in. Equal to
	// SourceDir unless relaying.
	WorkDir string

	// RepoURL is the normalized push target.
	RepoURL string

	// Branch to push. Empty means the working copy's current branch.
	Branch string

	// Token authenticates pushes. TokenSource records where it came from
	// for the startup banner (the token itself is never logged).
	Token       string
	TokenSource string

	Interval time.Duration // poll cycle
	Debounce time.Duration // event quiet period
	Retry    time.Duration // pending-entry retry period

	// Ignore holds extra ignore rules in gitignore syntax, appended to the
	// built-in defaults of the selected mode.
	Ignore []string

	// Patterns optionally restricts syncing to matching relative paths
	// (doublestar globs).
	Patterns []string

	// Commit identity. Empty fields fall back to the mode's bot identity.
	CommitName  string
	CommitEmail string
}

// Validate resolves paths, normalizes the repository URL, and enforces the
// token rules. It mutates the receiver with the resolved values.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return &ConfigError{Param: "folder", Err: errors.New("watched folder is required")}
	}
	src, err := utils.ResolvePath(c.SourceDir)
	if err != nil {
		return &ConfigError{Param: "folder", Value: c.SourceDir, Err: err}
	}
	if !utils.DirExists(src) {
		return &ConfigError{Param: "folder", Value: src, Err: errors.New("not a directory")}
	}
	c.SourceDir = src

	if c.WorkDir == "" {
		c.WorkDir = c.SourceDir
	}
	work, err := utils.ResolvePath(c.WorkDir)
	if err != nil {
		return &ConfigError{Param: "workdir", Value: c.WorkDir, Err: err}
	}
	c.WorkDir = work

	repoURL, err := git.NormalizeRepoURL(c.RepoURL)
	if err != nil {
		return &ConfigError{Param: "repo_url", Value: c.RepoURL, Err: err}
	}
	c.RepoURL = repoURL

	// local path remotes (mostly tests and offline mirrors) push without auth
	if git.IsRemoteURL(c.RepoURL) {
		if c.Token == "" {
			return &ConfigError{Param: "token", Err: ErrMissingToken}
		}
		if len(c.Token) < minTokenLen {
			return &ConfigError{Param: "token", Err: ErrTokenTooShort}
		}
	}

	// empty means the mode's bot identity
	if c.CommitEmail != "" {
		if err := utils.ValidateEmail(c.CommitEmail); err != nil {
			return &ConfigError{Param: "email", Value: c.CommitEmail, Err: err}
		}
	}

	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Retry <= 0 {
		c.Retry = DefaultRetryInterval
	}

	return nil
}
