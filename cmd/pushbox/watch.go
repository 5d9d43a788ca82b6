package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pushbox/pushbox/internal/config"
	pbsync "github.com/pushbox/pushbox/internal/sync"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	var token, branch, name, email string
	var debounce, retry time.Duration
	var ignore, patterns []string

	cmd := &cobra.Command{
		Use:   "watch FOLDER REPO_URL",
		Short: "Watch a folder and push every change to GitHub",
		Long: `Watches FOLDER for filesystem events and commits each file to REPO_URL
once it settles, one commit per file. FOLDER becomes (or already is) the
git working copy.`,
		Example: `  pushbox watch ~/notes https://github.com/alice/notes
  pushbox watch ~/notes git@github.com:alice/notes.git --debounce 2s`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg := &config.Config{
				SourceDir:   args[0],
				RepoURL:     args[1],
				Branch:      branch,
				Token:       token,
				Debounce:    debounce,
				Retry:       retry,
				Ignore:      ignore,
				Patterns:    patterns,
				CommitName:  name,
				CommitEmail: email,
			}
			return runMode(cmd, pbsync.ModeWatch, cfg)
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&token, "token", "t", "", "GitHub token (falls back to GITHUB_TOKEN, REPO_TOKEN, then "+config.TokenFileName+")")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to push (default: the working copy's current branch)")
	cmd.Flags().DurationVar(&debounce, "debounce", config.DefaultDebounce, "quiet period before a changed file is committed")
	cmd.Flags().DurationVar(&retry, "retry", config.DefaultRetryInterval, "how often pending files are retried")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "extra ignore rules (gitignore syntax)")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "only sync paths matching these globs")
	cmd.Flags().StringVar(&name, "name", "", "commit author name (default: the mode's bot identity)")
	cmd.Flags().StringVar(&email, "email", "", "commit author email (default: the mode's bot identity)")

	return cmd
}
