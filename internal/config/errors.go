package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken means no GitHub token was found anywhere in the
	// resolution chain.
	ErrMissingToken = errors.New("github token not found (use --token, GITHUB_TOKEN, REPO_TOKEN, or a .github_config file)")

	// ErrTokenTooShort guards against obviously truncated tokens.
	ErrTokenTooShort = errors.New("github token looks too short")
)

// ConfigError reports an invalid or missing configuration parameter.
// These are fatal at startup; nothing is watched or committed before the
// configuration validates.
type ConfigError struct {
	Param string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Param, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Param, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
