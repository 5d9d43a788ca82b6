package sync

import "github.com/pushbox/pushbox/internal/git"

// Mode selects the change detection strategy.
type Mode string

const (
	// ModePoll rescans the tree on a fixed interval and commits each
	// cycle's changes as one batch.
	ModePoll Mode = "poll"

	// ModeWatch subscribes to filesystem events on the working copy and
	// commits per file.
	ModeWatch Mode = "watch"

	// ModeRelay subscribes to filesystem events on a foreign tree (network
	// share) and copies each file into the working copy before committing.
	ModeRelay Mode = "relay"
)

func (m Mode) String() string {
	return string(m)
}

// Identity returns the mode's default commit identity.
func (m Mode) Identity() (name, email string) {
	switch m {
	case ModeWatch:
		return "File Watcher Bot", "filewatcher@automated.com"
	case ModeRelay:
		return "Network File Watcher Bot", "networkwatcher@automated.com"
	default:
		return git.DefaultCommitName, git.DefaultCommitEmail
	}
}
