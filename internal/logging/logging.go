// Package logging configures the process-wide slog logger. Diagnostics
// always go to stderr so they never mix with results written to stdout.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates and sets the package-level default slog logger. verbose
// lowers the threshold to debug; quiet raises it to error and wins when
// both flags are set.
func Setup(verbose, quiet bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to a
// slog.Level. Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
