// Command sweep runs one expiry pass: stale messages become expired and
// due snoozes return to pending. Invoked by an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lunahq/luna-backend/internal/app"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deps, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.Close()

	if _, err := deps.LunaService().Sweep(ctx); err != nil {
		deps.Log.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
