// Package logging configures structured logging for the gocumulative
// command-line tools.
//
// The package is a thin layer over the standard library slog: text or JSON
// handlers on stderr, a parsed level, and a discard logger for quiet runs.
// Library code in pkg/cumulative never constructs loggers itself; it
// accepts one through the engine options.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler and verbosity.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Empty means info.
	Level string
	// JSON switches from the text handler to the JSON handler.
	JSON bool
	// Quiet discards all log output.
	Quiet bool
}

// New returns a logger writing to stderr per the config.
func New(cfg Config) (*slog.Logger, error) {
	if cfg.Quiet {
		return Discard(), nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to its slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}
