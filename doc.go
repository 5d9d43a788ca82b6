// Package pushbox turns a folder into a self-pushing GitHub repository.
//
// pushbox watches a filesystem location and commits every change to a
// GitHub repository over HTTPS with token authentication. It runs as a
// long-lived process and needs no manual git interaction once started.
//
// Three modes cover the usual setups:
//
//   - watch: subscribe to filesystem events on a working copy and commit
//     each file once it settles, one commit per file
//   - relay: subscribe to events on a network share, copy each file into
//     a local working copy, then commit and push it
//   - poll: rescan a working copy on an interval and commit the cycle's
//     changes as one batch
//
// # Quick Start
//
//	# Save the GitHub token once (written to .github_config, mode 0600)
//	pushbox token save
//
//	# Watch a folder and push every change
//	pushbox watch ~/notes https://github.com/alice/notes
//
//	# Press Ctrl+C to stop
//
// # Module Structure
//
//   - cmd/pushbox: command-line interface
//   - internal/sync: engine, file watcher, snapshot scanner, tracker, stager
//   - internal/git: commit/push client over go-git
//   - internal/config: configuration, validation, token resolution
//   - internal/workspace: working-copy metadata directory and locking
//   - internal/history: sync attempt log, read by `pushbox history`
//   - internal/db: SQLite bootstrap with build-time driver selection
//   - internal/utils: small shared helpers
//
// Failures never stop the process. A file that could not be committed or
// pushed stays pending and is retried on the next cycle; every attempt is
// recorded to a local SQLite log.
package pushbox
