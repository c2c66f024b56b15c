package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide slog handler. format is "text" or "json".
func Init(debug bool, format string) {
	slog.SetDefault(New(os.Stdout, debug, format))
}

// New builds a logger without touching the global default.
func New(w io.Writer, debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
