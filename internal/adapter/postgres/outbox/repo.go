// Package outbox implements the job queue shared with the external job
// substrate. Inbound triggers (execute-action, detect-now) and outbound
// events (research start, prep start, followup generate) are rows in
// outbox_jobs; delivery is at-least-once, deduplicated on enqueue by an
// idempotency key and claimed with FOR UPDATE SKIP LOCKED.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lunahq/luna-backend/internal/adapter/postgres"
)

// Job statuses.
const (
	StatusPending = "PENDING"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusDead    = "DEAD"
)

// Job is one unit of work exchanged with the job substrate.
type Job struct {
	ID             uuid.UUID
	Kind           string
	IdempotencyKey string
	Payload        json.RawMessage
	Status         string
	Attempts       int
	NextAttemptAt  time.Time
	LastError      *string
	CreatedAt      time.Time
}

// Repo provides job persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new outbox repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const enqueueSQL = `INSERT INTO outbox_jobs (
	id, kind, idempotency_key, payload, status, attempts, next_attempt_at, created_at
) VALUES ($1,$2,$3,$4,$5,0,$6,$6)
ON CONFLICT (idempotency_key) DO NOTHING`

// Enqueue inserts a job unless one with the same idempotency key already
// exists. Returns false when the job was deduplicated.
func (r *Repo) Enqueue(ctx context.Context, kind, idempotencyKey string, payload any, now time.Time) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	raw, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	tag, err := q.Exec(ctx, enqueueSQL, uuid.New(), kind, idempotencyKey, raw, StatusPending, now)
	if err != nil {
		return false, fmt.Errorf("enqueue %s job: %w", kind, err)
	}
	return tag.RowsAffected() > 0, nil
}

const claimSQL = `UPDATE outbox_jobs
	SET status = $1, attempts = attempts + 1, next_attempt_at = $4
	WHERE id IN (
		SELECT id FROM outbox_jobs
		WHERE kind = ANY($2) AND status = $3 AND next_attempt_at <= $4
		ORDER BY next_attempt_at ASC
		LIMIT $5
		FOR UPDATE SKIP LOCKED
	)
	RETURNING id, kind, idempotency_key, payload, status, attempts, next_attempt_at, last_error, created_at`

// Claim atomically takes up to limit due jobs of the given kinds. The
// claim stamps next_attempt_at with the claim time so RequeueStuck can
// tell a fresh claim from one held by a dead worker.
func (r *Repo) Claim(ctx context.Context, kinds []string, limit int, now time.Time) ([]*Job, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, claimSQL, StatusRunning, kinds, StatusPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, scanJob)
	if err != nil {
		return nil, fmt.Errorf("scan claimed jobs: %w", err)
	}
	return jobs, nil
}

const markDoneSQL = `UPDATE outbox_jobs SET status = $2, last_error = NULL WHERE id = $1`

// MarkDone resolves a claimed job as completed.
func (r *Repo) MarkDone(ctx context.Context, jobID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, markDoneSQL, jobID, StatusDone); err != nil {
		return fmt.Errorf("mark job %s done: %w", jobID, err)
	}
	return nil
}

const retrySQL = `UPDATE outbox_jobs
	SET status = $2, next_attempt_at = $3, last_error = $4 WHERE id = $1`

const deadSQL = `UPDATE outbox_jobs SET status = $2, last_error = $3 WHERE id = $1`

// MarkFailed records a failure on a claimed job. Retryable failures are
// requeued with a backoff that grows linearly with the attempt count;
// non-retryable failures and exhausted retries go to DEAD.
func (r *Repo) MarkFailed(ctx context.Context, job *Job, failure string, retryable bool, maxAttempts int, backoff time.Duration, now time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if !retryable || job.Attempts >= maxAttempts {
		if _, err := q.Exec(ctx, deadSQL, job.ID, StatusDead, failure); err != nil {
			return fmt.Errorf("mark job %s dead: %w", job.ID, err)
		}
		return nil
	}

	next := now.Add(backoff * time.Duration(job.Attempts))
	if _, err := q.Exec(ctx, retrySQL, job.ID, StatusPending, next, failure); err != nil {
		return fmt.Errorf("requeue job %s: %w", job.ID, err)
	}
	return nil
}

const requeueStuckSQL = `UPDATE outbox_jobs SET status = $1
	WHERE status = $2 AND next_attempt_at <= $3`

// RequeueStuck returns RUNNING jobs whose claim is older than the given
// threshold to PENDING. Covers workers that died mid-job; re-running a
// job is safe because every handler is idempotent.
func (r *Repo) RequeueStuck(ctx context.Context, threshold time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, requeueStuckSQL, StatusPending, StatusRunning, threshold)
	if err != nil {
		return 0, fmt.Errorf("requeue stuck jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.CollectableRow) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Kind, &j.IdempotencyKey, &j.Payload, &j.Status,
		&j.Attempts, &j.NextAttemptAt, &j.LastError, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
