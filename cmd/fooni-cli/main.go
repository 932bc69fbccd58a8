package main

import (
	"context"

	"fooni-backend/cmd/fooni-cli/commands"
	"fooni-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "fooni-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
