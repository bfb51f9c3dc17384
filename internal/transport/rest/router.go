package rest

import (
	"log/slog"
	"net/http"

	"github.com/lunahq/luna-backend/internal/config"
	"github.com/lunahq/luna-backend/internal/transport/middleware"
)

// Router assembles the HTTP surface: health probes outside the identity
// gate, the engine API behind it.
func Router(log *slog.Logger, cors config.CORSConfig, health *HealthHandler, messages *MessageHandler, settings *SettingsHandler, limiter *middleware.RateLimiter, rateLimitPerMin int) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /luna/messages", messages.List)
	api.HandleFunc("POST /luna/messages/refresh", messages.Refresh)
	api.HandleFunc("POST /luna/messages/{id}/accept", messages.Accept)
	api.HandleFunc("POST /luna/messages/{id}/dismiss", messages.Dismiss)
	api.HandleFunc("POST /luna/messages/{id}/snooze", messages.Snooze)
	api.HandleFunc("GET /luna/settings", settings.Get)
	api.HandleFunc("PUT /luna/settings", settings.Update)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("/", middleware.Chain(
		middleware.Identity,
		limiter.Limit(rateLimitPerMin),
	)(api))

	return middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.CORS(cors),
	)(mux)
}
