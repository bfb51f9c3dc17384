// Package facts provides read-only access to the domain facts other
// pipelines produce (prospects from CRM sync, meetings from calendar
// sync, followups from transcription). The engine only reads them to
// find candidate events; it never mutates these tables.
package facts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/domain"
)

// Repo provides fact queries backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new facts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const prospectsWithoutResearchSQL = `SELECT p.id, p.user_id, p.organization_id, p.display_name, p.created_at
	FROM prospects p
	LEFT JOIN research_records r ON r.prospect_id = p.id
	WHERE p.user_id = $1 AND p.created_at >= $2 AND r.id IS NULL
	ORDER BY p.created_at ASC`

// ProspectsWithoutResearch returns prospects created since the given
// time that have no research record yet.
func (r *Repo) ProspectsWithoutResearch(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Prospect, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, prospectsWithoutResearchSQL, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list prospects without research: %w", err)
	}

	prospects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Prospect, error) {
		var p domain.Prospect
		err := row.Scan(&p.ID, &p.UserID, &p.OrganizationID, &p.DisplayName, &p.CreatedAt)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan prospects: %w", err)
	}
	return prospects, nil
}

const upcomingMeetingsWithoutPrepSQL = `SELECT m.id, m.user_id, m.organization_id, m.prospect_id, m.title, m.starts_at, m.ended_at, m.created_at
	FROM meetings m
	LEFT JOIN prep_records pr ON pr.meeting_id = m.id
	WHERE m.user_id = $1 AND m.starts_at BETWEEN $2 AND $3 AND m.ended_at IS NULL AND pr.id IS NULL
	ORDER BY m.starts_at ASC`

// UpcomingMeetingsWithoutPrep returns meetings starting inside the
// window that have no preparation record yet.
func (r *Repo) UpcomingMeetingsWithoutPrep(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Meeting, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, upcomingMeetingsWithoutPrepSQL, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list meetings without prep: %w", err)
	}

	meetings, err := pgx.CollectRows(rows, scanMeeting)
	if err != nil {
		return nil, fmt.Errorf("scan meetings: %w", err)
	}
	return meetings, nil
}

const getMeetingSQL = `SELECT id, user_id, organization_id, prospect_id, title, starts_at, ended_at, created_at
	FROM meetings WHERE id = $1`

// GetMeeting returns a meeting by id.
func (r *Repo) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, getMeetingSQL, meetingID)
	if err != nil {
		return nil, postgres.MapError(err, "meeting", meetingID)
	}

	meeting, err := pgx.CollectOneRow(rows, scanMeeting)
	if err != nil {
		return nil, postgres.MapError(err, "meeting", meetingID)
	}
	return meeting, nil
}

const pendingFollowupsSQL = `SELECT f.id, f.user_id, f.meeting_id, f.kind, f.created_at
	FROM followups f
	WHERE f.user_id = $1 AND f.created_at >= $2 AND f.generated_at IS NULL
	ORDER BY f.created_at ASC`

// PendingFollowups returns drafted followups created since the given
// time that have not been generated yet.
func (r *Repo) PendingFollowups(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Followup, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, pendingFollowupsSQL, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list pending followups: %w", err)
	}

	followups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Followup, error) {
		var (
			f    domain.Followup
			kind string
		)
		err := row.Scan(&f.ID, &f.UserID, &f.MeetingID, &kind, &f.CreatedAt)
		f.Kind = domain.MessageType(kind)
		return &f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan followups: %w", err)
	}
	return followups, nil
}

const followupExistsSQL = `SELECT EXISTS(SELECT 1 FROM followups WHERE id = $1 AND user_id = $2)`

// FollowupExists reports whether the referenced followup exists.
func (r *Repo) FollowupExists(ctx context.Context, userID, followupID uuid.UUID) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := q.QueryRow(ctx, followupExistsSQL, followupID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check followup %s: %w", followupID, err)
	}
	return exists, nil
}

const prospectNameSQL = `SELECT display_name FROM prospects WHERE id = $1`

// ProspectDisplayName returns the prospect's display name.
// Returns domain.ErrNotFound if the prospect is unknown.
func (r *Repo) ProspectDisplayName(ctx context.Context, prospectID uuid.UUID) (string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var name string
	if err := q.QueryRow(ctx, prospectNameSQL, prospectID).Scan(&name); err != nil {
		return "", postgres.MapError(err, "prospect", prospectID)
	}
	return name, nil
}

func scanMeeting(row pgx.CollectableRow) (*domain.Meeting, error) {
	var m domain.Meeting
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.ProspectID,
		&m.Title, &m.StartsAt, &m.EndedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
