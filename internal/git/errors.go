package git

import (
	"errors"
	"fmt"
	"net"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

var (
	// ErrNoChanges means the index matches HEAD, so there is nothing to commit.
	ErrNoChanges = errors.New("no changes to commit")

	// ErrAuth means the remote rejected our credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrConflict means the remote branch has commits we don't have
	// (non-fast-forward). Resolution is left to the user.
	ErrConflict = errors.New("push rejected, remote has newer commits")

	// ErrNetwork means the remote could not be reached.
	ErrNetwork = errors.New("network error")
)

// error kinds as recorded in logs and the attempt history
const (
	KindAuth     = "auth"
	KindConflict = "conflict"
	KindNetwork  = "network"
	KindNone     = ""
	KindOther    = "git"
)

// Classify wraps a go-git transport failure with the matching sentinel so
// callers can branch with errors.Is. Unclassified errors pass through.
func Classify(err error) error {
	if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}

	msg := err.Error()
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		strings.Contains(msg, "authentication required"),
		strings.Contains(msg, "authorization failed"):
		return fmt.Errorf("%w: %v", ErrAuth, err)

	case strings.Contains(msg, "non-fast-forward"),
		strings.Contains(msg, "fetch first"),
		strings.Contains(msg, "cannot lock ref"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "i/o timeout") {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return err
}

// Kind names the taxonomy bucket of a classified error.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindOther
	}
}
