package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures the process logger.
type Options struct {
	// Format is FormatText (default) or FormatJSON.
	Format string

	// Debug lowers the level from Info to Debug.
	Debug bool
}

// ParseFormat normalizes a format name. The empty string means FormatText.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q, must be one of: text, json", s)
	}
}

// New builds a logger writing to w. Diagnostics go to stderr in the CLI so
// that stdout only carries command output.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
