// Package logging builds the slog loggers used by the SDK and the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Vince095/HeatmapSDK/internal/config"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a structured logger. Format is "json" or "text"; timestamps
// are UTC RFC3339.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceTimeAttr,
	}

	format, err := config.NormalizeFormat(defaultString(opts.Format, "text"))
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, &handlerOpts)
	default:
		handler = slog.NewTextHandler(out, &handlerOpts)
	}
	return slog.New(handler), nil
}

// FromConfig builds a logger from the logging section, optionally forcing
// debug level.
func FromConfig(cfg config.LoggingConfig, out io.Writer, verbose bool) (*slog.Logger, error) {
	level := cfg.Level
	if verbose {
		level = "debug"
	}
	return New(Options{Level: level, Format: cfg.Format, Output: out})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	normalized, err := config.NormalizeLogLevel(defaultString(level, "info"))
	if err != nil {
		return 0, err
	}

	switch normalized {
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "info":
		return slog.LevelInfo, nil
	}
	return 0, fmt.Errorf("unhandled log level %q", normalized)
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func replaceTimeAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
