//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/facts"
	messagerepo "github.com/lunahq/luna-backend/internal/adapter/postgres/message"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/outbox"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/research"
	settingsrepo "github.com/lunahq/luna-backend/internal/adapter/postgres/settings"
	"github.com/lunahq/luna-backend/internal/adapter/postgres/testhelper"
	"github.com/lunahq/luna-backend/internal/config"
	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/service/luna"
	"github.com/lunahq/luna-backend/internal/transport/middleware"
	"github.com/lunahq/luna-backend/internal/transport/rest"
	"github.com/lunahq/luna-backend/internal/worker"
)

// testServer wraps the full HTTP stack plus direct handles on the
// engine for driving detection and job processing from tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	Luna   *luna.Service
	Worker *worker.Worker
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by
// a real PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	messageRepo := messagerepo.New(pool)
	settingsRepo := settingsrepo.New(pool)
	factsRepo := facts.New(pool)
	researchRepo := research.New(pool)
	outboxRepo := outbox.New(pool)

	lunaCfg := config.LunaConfig{
		MaxConcurrentMessages: 3,
		DetectWindow:          24 * time.Hour,
		DetectInterval:        5 * time.Minute,
		SweepInterval:         time.Minute,
	}
	workerCfg := config.WorkerConfig{
		PollInterval: 100 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  5,
		RetryBackoff: 30 * time.Second,
	}

	svc := luna.NewService(
		logger, lunaCfg, domain.DefaultPolicy(),
		messageRepo, settingsRepo, factsRepo, researchRepo, outboxRepo, txm,
	)

	wrk := worker.New(logger, workerCfg, outboxRepo, svc)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	handler := rest.Router(
		logger,
		config.CORSConfig{
			AllowedOrigins:   "*",
			AllowedMethods:   "GET,POST,PUT,OPTIONS",
			AllowedHeaders:   "X-User-Id,X-Org-Id,Content-Type",
			AllowCredentials: true,
			MaxAge:           86400,
		},
		rest.NewHealthHandler(pool, "test-version"),
		rest.NewMessageHandler(svc, logger),
		rest.NewSettingsHandler(svc, logger),
		limiter,
		10000,
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		Luna:   svc,
		Worker: wrk,
	}
}

// doJSON issues an authenticated request and decodes the JSON response
// into out (skipped when out is nil or the body is empty).
func (ts *testServer) doJSON(t *testing.T, method, path string, userID, orgID uuid.UUID, body any, out any) *http.Response {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", userID.String())
	req.Header.Set("X-Org-Id", orgID.String())

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// drainJobs runs the worker until the outbox has no claimable inbound
// jobs left.
func (ts *testServer) drainJobs(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, ts.Worker.RunOnce(ctx))

		var pending int
		err := ts.Pool.QueryRow(ctx,
			`SELECT count(*) FROM outbox_jobs
			 WHERE status = 'PENDING' AND kind LIKE 'luna.%' AND next_attempt_at <= now()`,
		).Scan(&pending)
		require.NoError(t, err)
		if pending == 0 {
			return
		}
	}
	t.Fatal("outbox still has claimable inbound jobs after 20 passes")
}
