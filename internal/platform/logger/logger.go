// Package logger builds the one slog instance the process logs through.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON logger at the given level. Services and handlers take
// it by injection so tests can swap in a discarding one.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
