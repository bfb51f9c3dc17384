// Package worker drains the outbox queue: it claims inbound jobs in
// batches and hands them to the Luna service. Outbound event kinds are
// left for the downstream pipelines.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/adapter/postgres/outbox"
	"github.com/lunahq/luna-backend/internal/config"
	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/jobs"
)

type queue interface {
	Claim(ctx context.Context, kinds []string, limit int, now time.Time) ([]*outbox.Job, error)
	MarkDone(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, job *outbox.Job, failure string, retryable bool, maxAttempts int, backoff time.Duration, now time.Time) error
	RequeueStuck(ctx context.Context, threshold time.Time) (int, error)
}

type engine interface {
	Execute(ctx context.Context, p jobs.ExecuteActionPayload, lastAttempt bool) error
	DetectAndAdmit(ctx context.Context, userID, orgID uuid.UUID) ([]*domain.Message, error)
}

// Worker polls the queue and executes claimed jobs sequentially. Run
// several workers for parallelism; FOR UPDATE SKIP LOCKED keeps them
// from claiming the same job.
type Worker struct {
	log   *slog.Logger
	cfg   config.WorkerConfig
	queue queue
	luna  engine

	now func() time.Time
}

// New creates a Worker.
func New(log *slog.Logger, cfg config.WorkerConfig, q queue, svc engine) *Worker {
	return &Worker{
		log:   log.With("component", "worker"),
		cfg:   cfg,
		queue: q,
		luna:  svc,
		now:   time.Now,
	}
}

// Run polls until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("worker started",
		slog.Duration("poll_interval", w.cfg.PollInterval),
		slog.Int("batch_size", w.cfg.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.log.Error("poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce claims and processes a single batch. Returns the claim error
// only; per-job failures are handled through the retry policy.
func (w *Worker) RunOnce(ctx context.Context) error {
	now := w.now()

	// Jobs stuck in running past twice the backoff belonged to a worker
	// that died mid-flight.
	if _, err := w.queue.RequeueStuck(ctx, now.Add(-2*w.cfg.RetryBackoff)); err != nil {
		w.log.Error("requeue stuck jobs failed", slog.String("error", err.Error()))
	}

	batch, err := w.queue.Claim(ctx, jobs.InboundKinds(), w.cfg.BatchSize, now)
	if err != nil {
		return err
	}

	for _, job := range batch {
		w.process(ctx, job)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job *outbox.Job) {
	err := w.handle(ctx, job)
	if err == nil {
		if merr := w.queue.MarkDone(ctx, job.ID); merr != nil {
			w.log.Error("mark done failed",
				slog.String("job_id", job.ID.String()),
				slog.String("error", merr.Error()),
			)
		}
		return
	}

	ee := domain.ClassifyExecutionError(err)
	w.log.Warn("job failed",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", job.Kind),
		slog.Int("attempt", job.Attempts),
		slog.Bool("retryable", ee.Retryable),
		slog.String("error", err.Error()),
	)
	if merr := w.queue.MarkFailed(ctx, job, ee.Message, ee.Retryable,
		w.cfg.MaxAttempts, w.cfg.RetryBackoff, w.now()); merr != nil {
		w.log.Error("mark failed failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error", merr.Error()),
		)
	}
}

func (w *Worker) handle(ctx context.Context, job *outbox.Job) error {
	lastAttempt := job.Attempts >= w.cfg.MaxAttempts

	switch job.Kind {
	case jobs.KindExecuteAction:
		var p jobs.ExecuteActionPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return domain.NewExecutionError(domain.ErrCodeInternal, "malformed payload: "+err.Error(), false)
		}
		return w.luna.Execute(ctx, p, lastAttempt)

	case jobs.KindDetectUser:
		var p jobs.DetectUserPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return domain.NewExecutionError(domain.ErrCodeInternal, "malformed payload: "+err.Error(), false)
		}
		_, err := w.luna.DetectAndAdmit(ctx, p.UserID, p.OrganizationID)
		return err

	default:
		return domain.NewExecutionError(domain.ErrCodeInternal, "no handler for kind "+job.Kind, false)
	}
}
