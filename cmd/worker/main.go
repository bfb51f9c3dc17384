// Command worker drains the job queue: executing accepted message
// actions and running on-demand detection passes. Runs until SIGINT or
// SIGTERM.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunahq/luna-backend/internal/adapter/postgres/outbox"
	"github.com/lunahq/luna-backend/internal/app"
	"github.com/lunahq/luna-backend/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.Close()

	w := worker.New(deps.Log, deps.Cfg.Worker, outbox.New(deps.Pool), deps.LunaService())

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
