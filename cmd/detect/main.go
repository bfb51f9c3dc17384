// Command detect runs one system-wide detection and admission pass over
// every active user. It is intended to be invoked by an external cron
// job on the configured detection cadence.
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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	deps, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.Close()

	report, err := deps.LunaService().DetectAll(ctx)
	if err != nil {
		deps.Log.Error("detection sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if report.Errors > 0 {
		os.Exit(1)
	}
}
