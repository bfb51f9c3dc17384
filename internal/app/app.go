package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/facts"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/message"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/outbox"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/research"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/settings"
	"github.com/lunahq/luna-backend/internal/config"
	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/service/luna"
)

// Deps bundles everything a process entrypoint needs: configuration,
// logger, database pool, and the validated engine policy.
type Deps struct {
	Cfg    *config.Config
	Log    *slog.Logger
	Pool   *pgxpool.Pool
	Policy domain.Policy
}

// Setup loads configuration, initializes the logger, connects to the
// database, and validates the engine policy. Shared by every cmd/
// entrypoint (server, detect, sweep, worker).
func Setup(ctx context.Context) (*Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)

	policy := domain.DefaultPolicy()
	policy.MaxConcurrent = cfg.Luna.MaxConcurrentMessages
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.Int("max_concurrent_messages", policy.MaxConcurrent),
	)

	return &Deps{Cfg: cfg, Log: logger, Pool: pool, Policy: policy}, nil
}

// LunaService wires the engine service against the postgres adapters.
// Shared composition root for the server, worker and cron entrypoints.
func (d *Deps) LunaService() *luna.Service {
	return luna.NewService(
		d.Log,
		d.Cfg.Luna,
		d.Policy,
		message.New(d.Pool),
		settings.New(d.Pool),
		facts.New(d.Pool),
		research.New(d.Pool),
		outbox.New(d.Pool),
		postgres.NewTxManager(d.Pool),
	)
}

// Close releases resources held by Deps.
func (d *Deps) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}
