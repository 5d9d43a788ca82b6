package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pushbox/pushbox/internal/config"
	"github.com/pushbox/pushbox/internal/utils"
	"github.com/pushbox/pushbox/internal/version"
	"github.com/pushbox/pushbox/internal/workspace"
)

const logFileName = "pushbox.log"

var rootCmd = &cobra.Command{
	Use:   "pushbox",
	Short: "Auto-commit file changes to GitHub",
	Long: `PushBox watches a folder and pushes every change to a GitHub repository.

Three modes cover the usual setups:
  watch   commit each settled file change in a working copy
  relay   mirror files from a network share into a working copy, then commit
  poll    rescan a working copy on an interval and commit changes in batches`,
	Version: version.Detailed(),
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "pushbox config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func main() {
	// a .env next to the invocation keeps GITHUB_TOKEN out of shell profiles
	_ = godotenv.Load()

	slog.SetDefault(slog.New(consoleHandler(slog.LevelInfo)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red.Render("ERROR"), err)
		os.Exit(1)
	}
}

func consoleHandler(level slog.Level) slog.Handler {
	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
}

// setupLogging switches the default logger to fan out to the console and a
// log file under the workspace metadata dir. The file always gets debug.
func setupLogging(ws *workspace.Workspace, verbose bool) (func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logPath := filepath.Join(ws.LogsDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(consoleHandler(level), fileHandler)))

	return func() { file.Close() }, nil
}
