package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pushbox/pushbox/internal/config"
	"github.com/pushbox/pushbox/internal/git"
	"github.com/pushbox/pushbox/internal/history"
	pbsync "github.com/pushbox/pushbox/internal/sync"
	"github.com/pushbox/pushbox/internal/version"
	"github.com/pushbox/pushbox/internal/workspace"
)

const (
	// how long a path:mtime pair suppresses duplicate relay events
	relayDedupeTTL = 5 * time.Minute

	statusInterval = 5 * time.Minute
)

// runMode wires up the daemon for one mode and blocks until the context
// is cancelled (ctrl-c) or a component fails to start.
func runMode(cmd *cobra.Command, mode pbsync.Mode, cfg *config.Config) error {
	slog.Info("pushbox", "version", version.Version, "revision", version.Revision, "mode", mode)

	cfg.Token, cfg.TokenSource = config.ResolveToken(cfg.Token, cfg.WorkDir, cfg.SourceDir, ".")
	if err := cfg.Validate(); err != nil {
		return err
	}

	ws, err := workspace.New(cfg.WorkDir)
	if err != nil {
		return err
	}
	if err := ws.Setup(); err != nil {
		if errors.Is(err, workspace.ErrWorkspaceLocked) {
			return fmt.Errorf("%w: %s", err, cfg.WorkDir)
		}
		return err
	}
	defer ws.Unlock()

	verbose, _ := cmd.Flags().GetBool("verbose")
	closeLogs, err := setupLogging(ws, verbose)
	if err != nil {
		return err
	}
	defer closeLogs()

	showHeader(mode, cfg)

	name, email := mode.Identity()
	if cfg.CommitName != "" {
		name = cfg.CommitName
	}
	if cfg.CommitEmail != "" {
		email = cfg.CommitEmail
	}

	gitClient, err := git.Open(&git.Options{
		Path:      cfg.WorkDir,
		RemoteURL: cfg.RepoURL,
		Branch:    cfg.Branch,
		Token:     cfg.Token,
		Name:      name,
		Email:     email,
	})
	if err != nil {
		return err
	}

	store, err := history.Open(ws.HistoryDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	opts := &pbsync.EngineOpts{
		Mode:      mode,
		SourceDir: cfg.SourceDir,
		Workspace: ws,
		Git:       gitClient,
		History:   store,
		Ignore:    pbsync.NewIgnore(mode, cfg.Ignore, cfg.Patterns),
		Interval:  cfg.Interval,
		Retry:     cfg.Retry,
	}
	if mode == pbsync.ModeWatch || mode == pbsync.ModeRelay {
		watcher := pbsync.NewFileWatcher(cfg.SourceDir)
		watcher.SetDebounceTimeout(cfg.Debounce)
		opts.Watcher = watcher
	}
	if mode == pbsync.ModeRelay {
		stager, err := pbsync.NewStager(cfg.SourceDir, cfg.WorkDir, relayDedupeTTL)
		if err != nil {
			return err
		}
		opts.Stager = stager
	}

	engine, err := pbsync.NewEngine(opts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := engine.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		engine.Stop()
		return gctx.Err()
	})
	g.Go(func() error {
		return statusLoop(gctx, engine, store)
	})

	defer slog.Info("Bye!")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// statusLoop periodically reports what the daemon has been doing.
func statusLoop(ctx context.Context, engine *pbsync.Engine, store *history.Store) error {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			attempts, err := store.Count()
			if err != nil {
				slog.Warn("status", "error", err)
				continue
			}
			slog.Info("status",
				"tracked", engine.Tracker().Len(),
				"pending", engine.Tracker().PendingCount(),
				"attempts", attempts,
			)
		}
	}
}
