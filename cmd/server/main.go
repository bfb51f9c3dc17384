// Command server runs the Luna HTTP API: the message queue endpoints,
// engine settings, and health probes.
//
// Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunahq/luna-backend/internal/app"
	"github.com/lunahq/luna-backend/internal/transport/middleware"
	"github.com/lunahq/luna-backend/internal/transport/rest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Setup(ctx)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	defer deps.Close()

	svc := deps.LunaService()

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	handler := rest.Router(
		deps.Log,
		deps.Cfg.CORS,
		rest.NewHealthHandler(deps.Pool, app.BuildVersion()),
		rest.NewMessageHandler(svc, deps.Log),
		rest.NewSettingsHandler(svc, deps.Log),
		limiter,
		deps.Cfg.Server.RateLimitPerMin,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", deps.Cfg.Server.Host, deps.Cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  deps.Cfg.Server.ReadTimeout,
		WriteTimeout: deps.Cfg.Server.WriteTimeout,
		IdleTimeout:  deps.Cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Log.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		deps.Log.Error("shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	deps.Log.Info("server stopped")
}
