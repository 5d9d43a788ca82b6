package git

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrBadRepoURL means the remote URL is not something we can push to.
var ErrBadRepoURL = errors.New("repository url must be http(s), ssh (git@host:path), or a local path")

// git@github.com:user/repo.git
var sshURLRegex = regexp.MustCompile(`^git@([^:/]+):(.+)$`)

// NormalizeRepoURL validates a remote URL and rewrites ssh-style GitHub URLs
// to their https form. Tokens are never embedded in the result; they travel
// as basic auth at push time.
func NormalizeRepoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrBadRepoURL
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrBadRepoURL, raw)
		}
		if u.User != nil {
			// strip embedded credentials
			u.User = nil
		}
		return u.String(), nil
	}

	if m := sshURLRegex.FindStringSubmatch(raw); m != nil {
		return fmt.Sprintf("https://%s/%s", m[1], strings.TrimPrefix(m[2], "/")), nil
	}

	if strings.HasPrefix(raw, "ssh://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrBadRepoURL, raw)
		}
		return fmt.Sprintf("https://%s/%s", u.Host, strings.TrimPrefix(u.Path, "/")), nil
	}

	// local paths serve as remotes in tests and offline setups
	if filepath.IsAbs(raw) || strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrBadRepoURL, raw)
		}
		return abs, nil
	}

	return "", fmt.Errorf("%w: %q", ErrBadRepoURL, raw)
}

// IsRemoteURL reports whether the normalized URL points at a network remote
// rather than a local path.
func IsRemoteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
