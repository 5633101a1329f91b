// Package logging builds the structured logger shared by both binaries.
package logging

import (
	"io"
	"log/slog"
)

// Environments recognised by New.
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// New returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging: JSON output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case EnvStaging:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
