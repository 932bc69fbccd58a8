package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default slog handler. verbose drops the level
// down to debug, which includes per-request scraper output.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
