package cfg

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger: text by default, JSON for log shippers.
func NewLogger(c *Cfg, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
