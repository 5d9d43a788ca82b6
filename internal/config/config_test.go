package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushbox/pushbox/internal/git"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		SourceDir: t.TempDir(),
		RepoURL:   "https://github.com/user/repo.git",
		Token:     "ghp_1234567890abcdef",
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	assert.True(t, filepath.IsAbs(cfg.SourceDir))
	assert.Equal(t, cfg.SourceDir, cfg.WorkDir)
	assert.Equal(t, "https://github.com/user/repo.git", cfg.RepoURL)
	assert.Equal(t, DefaultPollInterval, cfg.Interval)
	assert.Equal(t, DefaultDebounce, cfg.Debounce)
	assert.Equal(t, DefaultRetryInterval, cfg.Retry)
}

func TestValidateKeepsExplicitDurations(t *testing.T) {
	cfg := validConfig(t)
	cfg.Interval = 10 * time.Second
	cfg.Debounce = time.Second
	cfg.Retry = time.Minute

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, time.Second, cfg.Debounce)
	assert.Equal(t, time.Minute, cfg.Retry)
}

func TestValidateErrors(t *testing.T) {
	t.Run("missing folder", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SourceDir = ""
		var cfgErr *ConfigError
		err := cfg.Validate()
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "folder", cfgErr.Param)
	})

	t.Run("folder does not exist", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.SourceDir = filepath.Join(t.TempDir(), "missing")
		err := cfg.Validate()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "folder", cfgErr.Param)
	})

	t.Run("bad repo url", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.RepoURL = "not a url"
		err := cfg.Validate()
		assert.ErrorIs(t, err, git.ErrBadRepoURL)
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Token = ""
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("short token", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.Token = "short"
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrTokenTooShort)
	})

	t.Run("bad commit email", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.CommitEmail = "not-an-email"
		err := cfg.Validate()
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "email", cfgErr.Param)
	})
}

func TestValidateAcceptsCommitIdentity(t *testing.T) {
	cfg := validConfig(t)
	cfg.CommitName = "Reports Bot"
	cfg.CommitEmail = "reports@acme.test"
	require.NoError(t, cfg.Validate())
}

func TestValidateLocalRemoteNeedsNoToken(t *testing.T) {
	cfg := validConfig(t)
	cfg.RepoURL = filepath.Join(t.TempDir(), "remote.git")
	cfg.Token = ""
	require.NoError(t, cfg.Validate())
}

func TestValidateConvertsSSHURL(t *testing.T) {
	cfg := validConfig(t)
	cfg.RepoURL = "git@github.com:user/repo.git"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://github.com/user/repo.git", cfg.RepoURL)
}
