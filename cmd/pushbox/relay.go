package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pushbox/pushbox/internal/config"
	pbsync "github.com/pushbox/pushbox/internal/sync"
)

func init() {
	rootCmd.AddCommand(newRelayCmd())
}

func newRelayCmd() *cobra.Command {
	var token, branch, name, email string
	var debounce, retry time.Duration
	var ignore, patterns []string

	cmd := &cobra.Command{
		Use:   "relay SOURCE WORKCOPY REPO_URL",
		Short: "Mirror files from a network share into a working copy and push them",
		Long: `Watches SOURCE (typically a mounted network share) for filesystem events,
copies each settled file into WORKCOPY at the same relative path, then
commits and pushes it to REPO_URL. SOURCE and WORKCOPY must be separate
trees.`,
		Example: `  pushbox relay /mnt/scanner ~/scans-repo https://github.com/office/scans`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg := &config.Config{
				SourceDir:   args[0],
				WorkDir:     args[1],
				RepoURL:     args[2],
				Branch:      branch,
				Token:       token,
				Debounce:    debounce,
				Retry:       retry,
				Ignore:      ignore,
				Patterns:    patterns,
				CommitName:  name,
				CommitEmail: email,
			}
			return runMode(cmd, pbsync.ModeRelay, cfg)
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&token, "token", "t", "", "GitHub token (falls back to GITHUB_TOKEN, REPO_TOKEN, then "+config.TokenFileName+")")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to push (default: the working copy's current branch)")
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "quiet period before a changed file is staged")
	cmd.Flags().DurationVar(&retry, "retry", config.DefaultRetryInterval, "how often pending files are retried")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "extra ignore rules (gitignore syntax)")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "only sync paths matching these globs")
	cmd.Flags().StringVar(&name, "name", "", "commit author name (default: the mode's bot identity)")
	cmd.Flags().StringVar(&email, "email", "", "commit author email (default: the mode's bot identity)")

	return cmd
}
