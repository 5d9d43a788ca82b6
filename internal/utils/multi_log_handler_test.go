package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiLogHandlerRespectsLevels(t *testing.T) {
	var console, file bytes.Buffer
	handler := NewMultiLogHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(handler)

	logger.Debug("staged file", "path", "a.txt")
	logger.Info("synced", "path", "a.txt")

	assert.NotContains(t, console.String(), "staged file")
	assert.Contains(t, console.String(), "synced")
	assert.Contains(t, file.String(), "staged file")
	assert.Contains(t, file.String(), "synced")
}

func TestMultiLogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewMultiLogHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(handler).With("mode", "relay")

	logger.Info("synced")

	require.Contains(t, buf.String(), "mode=relay")
}
