// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables consulted when flags leave level or format empty.
const (
	EnvLevel  = "VETGATE_LOG_LEVEL"
	EnvFormat = "VETGATE_LOG_FORMAT"
)

// New builds the process logger. Logs never go to stdout, which is reserved
// for the report document.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if format == "" {
		format = os.Getenv(EnvFormat)
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
