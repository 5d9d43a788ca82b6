package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pushbox/pushbox/internal/config"
	pbsync "github.com/pushbox/pushbox/internal/sync"
)

func init() {
	rootCmd.AddCommand(newPollCmd())
}

func newPollCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "poll [FOLDER REPO_URL]",
		Short: "Rescan a working copy on an interval and push changes in batches",
		Long: `Snapshots FOLDER every interval and commits the cycle's new and changed
files as a single commit. FOLDER and REPO_URL can come from the config
file instead of the command line.

Config file keys (json): repo_path, repo_url, branch, interval, ignore,
pattern, commit_name, commit_email. Environment variables use the
PUSHBOX_ prefix (PUSHBOX_REPO_URL, ...).`,
		Example: `  pushbox poll ~/reports https://github.com/acme/reports --interval 10s
  pushbox poll --config ~/.pushbox/config.json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return errors.New("expects no arguments (config file) or exactly FOLDER REPO_URL")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := loadPollConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				cfg.SourceDir = args[0]
				cfg.RepoURL = args[1]
			}
			cfg.Token = token

			return runMode(cmd, pbsync.ModePoll, cfg)
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&token, "token", "t", "", "GitHub token (falls back to GITHUB_TOKEN, REPO_TOKEN, then "+config.TokenFileName+")")
	cmd.Flags().StringP("branch", "b", "", "branch to push (default: the working copy's current branch)")
	cmd.Flags().DurationP("interval", "i", config.DefaultPollInterval, "rescan interval")
	cmd.Flags().StringSlice("ignore", nil, "extra ignore rules (gitignore syntax)")
	cmd.Flags().StringSlice("pattern", nil, "only sync paths matching these globs")

	return cmd
}

// loadPollConfig merges the config file, PUSHBOX_ environment variables and
// command flags, in increasing order of precedence.
func loadPollConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()

	if cmd.Flag("config").Changed {
		v.SetConfigFile(cmd.Flag("config").Value.String())
	} else {
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".pushbox"))
		v.SetConfigName("config")
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		var notFound viper.ConfigFileNotFoundError
		if !enoent && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetDefault("interval", config.DefaultPollInterval)

	if err := v.BindPFlag("branch", cmd.Flags().Lookup("branch")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("interval", cmd.Flags().Lookup("interval")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("ignore", cmd.Flags().Lookup("ignore")); err != nil {
		return nil, err
	}
	if err := v.BindPFlag("pattern", cmd.Flags().Lookup("pattern")); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("PUSHBOX")
	v.AutomaticEnv()

	return &config.Config{
		SourceDir:   v.GetString("repo_path"),
		RepoURL:     v.GetString("repo_url"),
		Branch:      v.GetString("branch"),
		Interval:    v.GetDuration("interval"),
		Ignore:      v.GetStringSlice("ignore"),
		Patterns:    v.GetStringSlice("pattern"),
		CommitName:  v.GetString("commit_name"),
		CommitEmail: v.GetString("commit_email"),
	}, nil
}
