package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always logs JSON for the
// log shipper; elsewhere LOG_FORMAT picks the handler, defaulting to text.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
