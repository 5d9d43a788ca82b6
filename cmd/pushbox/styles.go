package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pushbox/pushbox/internal/config"
	pbsync "github.com/pushbox/pushbox/internal/sync"
	"github.com/pushbox/pushbox/internal/utils"
	"github.com/pushbox/pushbox/internal/version"
)

var (
	// https://github.com/muesli/termenv/blob/master/ansicolors.go
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	header = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// showHeader prints the startup banner before the daemon takes over the
// terminal with log lines.
func showHeader(mode pbsync.Mode, cfg *config.Config) {
	fmt.Println(header.Render(fmt.Sprintf("%s (%s mode)", version.ShortWithApp(), mode)))
	fmt.Printf("%s %s\n", gray.Render("source:"), cfg.SourceDir)
	if cfg.WorkDir != cfg.SourceDir {
		fmt.Printf("%s %s\n", gray.Render("workdir:"), cfg.WorkDir)
	}
	fmt.Printf("%s %s\n", gray.Render("remote:"), cfg.RepoURL)
	if cfg.Branch != "" {
		fmt.Printf("%s %s\n", gray.Render("branch:"), cfg.Branch)
	}
	if cfg.Token != "" {
		fmt.Printf("%s %s (%s)\n", gray.Render("token:"), utils.MaskSecret(cfg.Token), cfg.TokenSource)
	}
}
