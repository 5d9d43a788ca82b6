package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pushbox/pushbox/internal/utils"
)

const (
	// TokenFileName is the plain-text token file. Keep it out of version
	// control.
	TokenFileName = ".github_config"

	EnvGitHubToken = "GITHUB_TOKEN"
	EnvRepoToken   = "REPO_TOKEN"
)

// ResolveToken returns the first token found, in order of preference:
// the explicit flag value, GITHUB_TOKEN, REPO_TOKEN, then a .github_config
// file in each of searchDirs. The returned source is for logging only.
func ResolveToken(explicit string, searchDirs ...string) (token string, source string) {
	if explicit != "" {
		return strings.TrimSpace(explicit), "flag"
	}

	if v := os.Getenv(EnvGitHubToken); v != "" {
		return strings.TrimSpace(v), "env " + EnvGitHubToken
	}
	if v := os.Getenv(EnvRepoToken); v != "" {
		return strings.TrimSpace(v), "env " + EnvRepoToken
	}

	for _, dir := range searchDirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, TokenFileName)
		if tok, err := TokenFromFile(path); err == nil && tok != "" {
			return tok, path
		}
	}

	return "", ""
}

// TokenFromFile reads a token file, trimming surrounding whitespace.
func TokenFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &ConfigError{Param: "token", Err: ErrMissingToken}
	}
	if len(token) < minTokenLen {
		return &ConfigError{Param: "token", Err: ErrTokenTooShort}
	}

	if err := utils.EnsureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return err
	}
	// WriteFile only applies the mode on create; clamp pre-existing files too
	return os.Chmod(path, 0o600)
}
