// Package logging builds the application's slog logger: JSON, text or
// colored console output, optionally decorated for GCP Cloud Logging.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/menezmethod/mwpipe/internal/config"
)

// ParseLevel maps a config level name to a slog.Level. Unknown names map to
// info.
func ParseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w as configured by cfg.
// Cloud mode: "" (none), "gcp" (add severity), "gcp_with_resource" (severity + resource).
func New(w io.Writer, cfg config.Log) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var base slog.Handler
	switch cfg.Format {
	case "console":
		color := isTerminal(w)
		if f, ok := w.(*os.File); ok && color {
			w = colorable.NewColorable(f)
		}
		base = tint.NewHandler(w, &tint.Options{
			Level:      level,
			NoColor:    !color,
			TimeFormat: "2006-01-02 15:04:05.000",
		})
	case "text":
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	switch cfg.CloudFormat {
	case "gcp", "gcp_with_resource":
		base = NewGCPHandler(base, GCPOptions{
			Service:     "mwpipe",
			Project:     os.Getenv("GOOGLE_CLOUD_PROJECT"),
			AddResource: cfg.CloudFormat == "gcp_with_resource",
		})
	}
	return slog.New(base)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
