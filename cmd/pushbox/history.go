package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pushbox/pushbox/internal/history"
	"github.com/pushbox/pushbox/internal/utils"
	"github.com/pushbox/pushbox/internal/workspace"
)

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func newHistoryCmd() *cobra.Command {
	var limit int
	var asJSON bool
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history [WORKDIR]",
		Short: "Show recent sync attempts",
		Long: `Reads the attempt log a pushbox daemon keeps under WORKDIR/` + workspace.MetadataDirName + `
and prints the most recent entries, newest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			path := dbPath
			if path == "" {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				ws, err := workspace.New(dir)
				if err != nil {
					return err
				}
				path = ws.HistoryDBPath()
			}
			if !utils.FileExists(path) {
				return fmt.Errorf("no sync history at %s", path)
			}

			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			attempts, err := store.Recent(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(attempts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(attempts) == 0 {
				fmt.Fprintln(out, gray.Render("no attempts recorded"))
				return nil
			}
			for _, attempt := range attempts {
				fmt.Fprintln(out, formatAttempt(attempt))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of attempts to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as json")
	cmd.Flags().StringVar(&dbPath, "db", "", "history database path (default WORKDIR/"+workspace.MetadataDirName+"/history.db)")

	return cmd
}

func formatAttempt(a *history.Attempt) string {
	outcome := fmt.Sprintf("%-6s", a.Outcome)
	if a.Outcome == history.OutcomeSynced {
		outcome = green.Render(outcome)
	} else {
		outcome = red.Render(outcome)
	}

	line := fmt.Sprintf("%s  %-5s  %s  %s",
		a.Time.Local().Format("2006-01-02 15:04:05"), a.Mode, outcome, a.Path)
	if a.CommitHash != "" {
		line += gray.Render("  " + shortHash(a.CommitHash))
	}
	if a.Error != "" {
		line += red.Render("  " + a.Error)
	}
	return line
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
