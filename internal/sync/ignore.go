package sync

import (
	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/pushbox/pushbox/internal/workspace"
)

// Default exclusions per mode. Poll skips well known build and VCS
// directories; the event modes skip every dot-prefixed path, and relay
// additionally skips editor temp files that appear on network shares.
var (
	pollIgnoreLines = []string{
		".git/",
		"__pycache__/",
		".idea/",
		".venv/",
	}

	watchIgnoreLines = []string{
		".*",
	}

	relayIgnoreLines = []string{
		".*",
		"*.tmp",
		"*.temp",
		"*~",
		"~$*",
	}
)

// DefaultIgnoreLines returns the built-in exclusion rules for a mode.
// The returned slice is a copy and safe to append to.
func DefaultIgnoreLines(mode Mode) []string {
	var lines []string
	switch mode {
	case ModeWatch:
		lines = watchIgnoreLines
	case ModeRelay:
		lines = relayIgnoreLines
	default:
		lines = pollIgnoreLines
	}
	return append([]string{}, lines...)
}

// Ignore decides which relative paths take part in syncing. Exclusion
// rules use gitignore syntax; include patterns, when present, restrict
// syncing to files matching at least one doublestar glob.
type Ignore struct {
	matcher  *gitignore.GitIgnore
	patterns []string
}

// NewIgnore compiles the mode's default rules plus any extra lines.
// The workspace metadata directory and the git directory are always
// excluded so the tool never reacts to its own writes.
func NewIgnore(mode Mode, extra []string, patterns []string) *Ignore {
	lines := DefaultIgnoreLines(mode)
	lines = append(lines, extra...)
	lines = append(lines, workspace.MetadataDirName+"/", ".git/")
	return &Ignore{
		matcher:  gitignore.CompileIgnoreLines(lines...),
		patterns: patterns,
	}
}

// ShouldSkip reports whether the normalized relative path is excluded
// from syncing.
func (ig *Ignore) ShouldSkip(relPath string) bool {
	if relPath == "" || relPath == "." {
		return true
	}
	if ig.matcher.MatchesPath(relPath) {
		return true
	}
	if len(ig.patterns) == 0 {
		return false
	}
	for _, pattern := range ig.patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return false
		}
	}
	return true
}

// ShouldSkipDir reports whether a directory subtree can be pruned during
// a walk. Include patterns never prune directories since a match may sit
// anywhere below.
func (ig *Ignore) ShouldSkipDir(relPath string) bool {
	if relPath == "" || relPath == "." {
		return false
	}
	return ig.matcher.MatchesPath(relPath + "/")
}
