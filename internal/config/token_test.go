package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTokenPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToken(filepath.Join(dir, TokenFileName), "file_token_1234"))

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvGitHubToken, "env_github_1234")
		t.Setenv(EnvRepoToken, "env_repo_12345")

		token, source := ResolveToken("flag_token_1234", dir)
		assert.Equal(t, "flag_token_1234", token)
		assert.Equal(t, "flag", source)
	})

	t.Run("github env beats repo env", func(t *testing.T) {
		t.Setenv(EnvGitHubToken, "env_github_1234")
		t.Setenv(EnvRepoToken, "env_repo_12345")

		token, source := ResolveToken("", dir)
		assert.Equal(t, "env_github_1234", token)
		assert.Equal(t, "env "+EnvGitHubToken, source)
	})

	t.Run("repo env beats file", func(t *testing.T) {
		t.Setenv(EnvGitHubToken, "")
		t.Setenv(EnvRepoToken, "env_repo_12345")

		token, source := ResolveToken("", dir)
		assert.Equal(t, "env_repo_12345", token)
		assert.Equal(t, "env "+EnvRepoToken, source)
	})

	t.Run("file is the fallback", func(t *testing.T) {
		t.Setenv(EnvGitHubToken, "")
		t.Setenv(EnvRepoToken, "")

		token, source := ResolveToken("", dir)
		assert.Equal(t, "file_token_1234", token)
		assert.Equal(t, filepath.Join(dir, TokenFileName), source)
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Setenv(EnvGitHubToken, "")
		t.Setenv(EnvRepoToken, "")

		token, source := ResolveToken("", t.TempDir())
		assert.Empty(t, token)
		assert.Empty(t, source)
	})
}

func TestSaveToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFileName)
	require.NoError(t, SaveToken(path, "ghp_1234567890"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ghp_1234567890", token)
}

func TestSaveTokenRejectsBadTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFileName)
	assert.ErrorIs(t, SaveToken(path, ""), ErrMissingToken)
	assert.ErrorIs(t, SaveToken(path, "  "), ErrMissingToken)
	assert.ErrorIs(t, SaveToken(path, "short"), ErrTokenTooShort)
}

func TestTokenFromFileTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFileName)
	require.NoError(t, os.WriteFile(path, []byte("  tok_with_space_123 \n"), 0o600))

	token, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tok_with_space_123", token)
}

func TestTokenFromFileMissing(t *testing.T) {
	_, err := TokenFromFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
