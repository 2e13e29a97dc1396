package internal

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// newLogger builds the application logger from the app section.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, LogFormatText) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
