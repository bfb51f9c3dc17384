// Package message implements the Message repository using PostgreSQL.
// It owns every lifecycle mutation of luna_messages; status changes are
// conditional updates guarded by the state machine's allowed source
// states, so a lost race surfaces as domain.ErrConflict instead of a
// silently reversed transition.
package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/domain"
)

// Repo provides message persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const messageColumns = `id, user_id, organization_id, type, action_type, status, priority,
	action_data, surface, depends_on, created_at, shown_at, decided_at,
	snoozed_until, expires_at, error_code, error_message, retryable`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

const getMessageSQL = `SELECT ` + messageColumns + `
	FROM luna_messages WHERE id = $1 AND user_id = $2`

// GetByID returns a message by primary key.
// Returns domain.ErrNotFound if it does not exist or belongs to another user.
func (r *Repo) GetByID(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, getMessageSQL, messageID, userID)
	if err != nil {
		return nil, postgres.MapError(err, "message", messageID)
	}

	msg, err := pgx.CollectOneRow(rows, scanMessage)
	if err != nil {
		return nil, postgres.MapError(err, "message", messageID)
	}
	return msg, nil
}

// ListNonTerminal returns every message for the user that still blocks a
// slot or a sequential type, ordered for deterministic admission
// (priority DESC, created_at ASC, id ASC as a stable final tie-break).
func (r *Repo) ListNonTerminal(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	return r.list(ctx, builder.
		Select(messageColumns).
		From("luna_messages").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"status": nonTerminalStatuses()}).
		OrderBy("priority DESC", "created_at ASC", "id ASC"))
}

// ListForSurface returns the user's messages on a surface in the given
// statuses, ordered by priority then age. Used by the client fetch.
func (r *Repo) ListForSurface(ctx context.Context, userID uuid.UUID, surface domain.Surface, statuses []domain.MessageStatus) ([]*domain.Message, error) {
	q := builder.
		Select(messageColumns).
		From("luna_messages").
		Where(sq.Eq{"user_id": userID, "status": statusStrings(statuses)}).
		OrderBy("priority DESC", "created_at ASC", "id ASC")
	if surface != "" {
		q = q.Where(sq.Eq{"surface": string(surface)})
	}
	return r.list(ctx, q)
}

// CountVisible returns how many messages currently occupy a visible slot.
func (r *Repo) CountVisible(ctx context.Context, userID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Select("COUNT(*)").
		From("luna_messages").
		Where(sq.Eq{"user_id": userID, "status": string(domain.MessageStatusShown)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count visible messages: %w", err)
	}
	return count, nil
}

const hasCompletedSQL = `SELECT EXISTS(
	SELECT 1 FROM luna_messages
	WHERE user_id = $1 AND type = $2 AND status = $3)`

// HasCompleted reports whether the user has a message of the given type
// in the completed state. Used for dependency gating.
func (r *Repo) HasCompleted(ctx context.Context, userID uuid.UUID, t domain.MessageType) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx, hasCompletedSQL, userID, string(t), string(domain.MessageStatusCompleted)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completed %s: %w", t, err)
	}
	return exists, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

const createMessageSQL = `INSERT INTO luna_messages (
	id, user_id, organization_id, type, action_type, status, priority,
	action_data, surface, depends_on, created_at, expires_at, retryable
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,false)
RETURNING ` + messageColumns

// Create inserts a new message and returns the persisted row.
func (r *Repo) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var dependsOn *string
	if m.DependsOn != nil {
		s := string(*m.DependsOn)
		dependsOn = &s
	}

	rows, err := q.Query(ctx, createMessageSQL,
		m.ID, m.UserID, m.OrganizationID, string(m.Type), string(m.ActionType),
		string(m.Status), m.Priority, m.ActionData, string(m.Surface), dependsOn,
		m.CreatedAt, m.ExpiresAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "message", m.ID)
	}

	created, err := pgx.CollectOneRow(rows, scanMessage)
	if err != nil {
		return nil, postgres.MapError(err, "message", m.ID)
	}
	return created, nil
}

const markShownSQL = `UPDATE luna_messages
	SET status = $3, shown_at = $4
	WHERE id = $1 AND user_id = $2 AND status = $5`

// MarkShown promotes a pending message into a visible slot.
// Returns domain.ErrConflict if the message is no longer pending.
func (r *Repo) MarkShown(ctx context.Context, userID, messageID uuid.UUID, now time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, markShownSQL, messageID, userID,
		string(domain.MessageStatusShown), now, string(domain.MessageStatusPending))
	if err != nil {
		return postgres.MapError(err, "message", messageID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: promote to shown: %w", messageID, domain.ErrConflict)
	}
	return nil
}

const decideSQL = `UPDATE luna_messages
	SET status = $3, decided_at = $4
	WHERE id = $1 AND user_id = $2 AND status = $5 AND expires_at > $4
	RETURNING ` + messageColumns

// Decide records a user decision (accepted or dismissed) on a shown
// message. Returns domain.ErrNotFound if the message does not exist and
// domain.ErrConflict if it is not currently shown or its deadline has
// already passed.
func (r *Repo) Decide(ctx context.Context, userID, messageID uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error) {
	if to != domain.MessageStatusAccepted && to != domain.MessageStatusDismissed {
		return nil, fmt.Errorf("message %s: decide to %s: %w", messageID, to, domain.ErrValidation)
	}
	return r.conditionalUpdate(ctx, userID, messageID, decideSQL,
		string(to), now, string(domain.MessageStatusShown))
}

const snoozeSQL = `UPDATE luna_messages
	SET status = $3, snoozed_until = $4, decided_at = $5,
	    expires_at = GREATEST(expires_at, $4)
	WHERE id = $1 AND user_id = $2 AND status = $6 AND expires_at > $5
	RETURNING ` + messageColumns

// Snooze parks a shown message until the given wake time. A snooze
// crossing the deadline pushes expires_at out to the wake time, so the
// message always survives to return to pending.
func (r *Repo) Snooze(ctx context.Context, userID, messageID uuid.UUID, until, now time.Time) (*domain.Message, error) {
	return r.conditionalUpdate(ctx, userID, messageID, snoozeSQL,
		string(domain.MessageStatusSnoozed), until, now, string(domain.MessageStatusShown))
}

const wakeSnoozedSQL = `UPDATE luna_messages
	SET status = $2, snoozed_until = NULL
	WHERE user_id = $1 AND status = $3 AND snoozed_until <= $4`

// WakeDueSnoozed returns the user's due snoozed messages to pending so
// they re-enter admission (the cap is re-checked there, not here).
func (r *Repo) WakeDueSnoozed(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, wakeSnoozedSQL, userID,
		string(domain.MessageStatusPending), string(domain.MessageStatusSnoozed), now)
	if err != nil {
		return 0, fmt.Errorf("wake snoozed messages: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const wakeAllSnoozedSQL = `UPDATE luna_messages
	SET status = $1, snoozed_until = NULL
	WHERE status = $2 AND snoozed_until <= $3`

// WakeAllDueSnoozed is the sweep-wide variant of WakeDueSnoozed,
// covering users with no detection activity between passes.
func (r *Repo) WakeAllDueSnoozed(ctx context.Context, now time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, wakeAllSnoozedSQL,
		string(domain.MessageStatusPending), string(domain.MessageStatusSnoozed), now)
	if err != nil {
		return 0, fmt.Errorf("wake all snoozed messages: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ExpireStale transitions every non-terminal, non-accepted message past
// its deadline to expired. Accepted messages are left for the executor.
func (r *Repo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := builder.
		Update("luna_messages").
		Set("status", string(domain.MessageStatusExpired)).
		Where(sq.Eq{"status": []string{
			string(domain.MessageStatusPending),
			string(domain.MessageStatusShown),
			string(domain.MessageStatusSnoozed),
		}}).
		Where(sq.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build expire query: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("expire stale messages: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const completeSQL = `UPDATE luna_messages
	SET status = $3, error_code = NULL, error_message = NULL, retryable = false
	WHERE id = $1 AND user_id = $2 AND status = $4
	RETURNING ` + messageColumns

// Complete resolves an accepted message as successfully executed.
func (r *Repo) Complete(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return r.conditionalUpdate(ctx, userID, messageID, completeSQL,
		string(domain.MessageStatusCompleted), string(domain.MessageStatusAccepted))
}

const failSQL = `UPDATE luna_messages
	SET status = $3, error_code = $4, error_message = $5, retryable = $6
	WHERE id = $1 AND user_id = $2 AND status = $7
	RETURNING ` + messageColumns

// Fail resolves an accepted message as failed, recording the error for
// observability.
func (r *Repo) Fail(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) (*domain.Message, error) {
	return r.conditionalUpdate(ctx, userID, messageID, failSQL,
		string(domain.MessageStatusFailed), code, errMessage, retryable,
		string(domain.MessageStatusAccepted))
}

const recordErrorSQL = `UPDATE luna_messages
	SET error_code = $3, error_message = $4, retryable = $5
	WHERE id = $1 AND user_id = $2`

// RecordError stores execution error details without changing status.
// Used on retryable failures so the error is visible while the job
// substrate retries.
func (r *Repo) RecordError(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, recordErrorSQL, messageID, userID, code, errMessage, retryable); err != nil {
		return postgres.MapError(err, "message", messageID)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// conditionalUpdate runs a guarded status update. Zero rows means the
// message either does not exist (ErrNotFound) or is not in the required
// source state (ErrConflict); a follow-up read distinguishes the two.
func (r *Repo) conditionalUpdate(ctx context.Context, userID, messageID uuid.UUID, sql string, args ...any) (*domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sql, append([]any{messageID, userID}, args...)...)
	if err != nil {
		return nil, postgres.MapError(err, "message", messageID)
	}

	msg, err := pgx.CollectOneRow(rows, scanMessage)
	if err == nil {
		return msg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, postgres.MapError(err, "message", messageID)
	}

	if _, getErr := r.GetByID(ctx, userID, messageID); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrConflict)
}

func (r *Repo) list(ctx context.Context, q sq.SelectBuilder) ([]*domain.Message, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return msgs, nil
}

func scanMessage(row pgx.CollectableRow) (*domain.Message, error) {
	var (
		m         domain.Message
		msgType   string
		action    string
		status    string
		surface   string
		dependsOn *string
	)
	err := row.Scan(
		&m.ID, &m.UserID, &m.OrganizationID, &msgType, &action, &status, &m.Priority,
		&m.ActionData, &surface, &dependsOn, &m.CreatedAt, &m.ShownAt, &m.DecidedAt,
		&m.SnoozedUntil, &m.ExpiresAt, &m.ErrorCode, &m.ErrorMessage, &m.Retryable,
	)
	if err != nil {
		return nil, err
	}
	m.Type = domain.MessageType(msgType)
	m.ActionType = domain.ActionType(action)
	m.Status = domain.MessageStatus(status)
	m.Surface = domain.Surface(surface)
	if dependsOn != nil {
		dep := domain.MessageType(*dependsOn)
		m.DependsOn = &dep
	}
	return &m, nil
}

func nonTerminalStatuses() []string {
	return []string{
		string(domain.MessageStatusPending),
		string(domain.MessageStatusShown),
		string(domain.MessageStatusAccepted),
		string(domain.MessageStatusSnoozed),
	}
}

func statusStrings(statuses []domain.MessageStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
