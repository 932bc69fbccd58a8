package main

import (
	"context"
	"log/slog"
	"os"

	"fooni-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	err := telemetry.SetupFromEnv(ctx, "fooni-server")
	if os.IsNotExist(err) {
		slog.Warn("no telemetry.json5 found, exporting nowhere")
		return
	}
	if err != nil {
		slog.Error("telemetry setup", "err", err)
		return
	}

	if verbose {
		telemetry.InstrumentPerfStats(ctx)
	}
}
