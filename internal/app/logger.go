package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the service logger without touching the global one, so
// every App owns an isolated logger. Level names are case-insensitive and
// accept slog offsets such as "debug+2"; an empty level means info and an
// empty format means text.
func newLogger(levelStr, formatStr string, outW io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if levelStr != "" {
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
		}
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(formatStr) {
	case "", "text":
		return slog.New(slog.NewTextHandler(outW, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(outW, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", formatStr)
	}
}
