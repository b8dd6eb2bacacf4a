package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON structured logger writing to stdout. Handlers and
// services receive it by injection so tests can swap in a discard logger.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// NewDiscard returns a logger that drops everything. For tests.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
