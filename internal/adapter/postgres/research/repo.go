// Package research implements the research and preparation record
// repositories. Record existence is the executor's idempotency check:
// unique constraints on prospect_id and meeting_id ensure at most one
// record per subject even under concurrent execution.
package research

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/domain"
)

// Repo provides research/prep record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new research repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Research records
// ---------------------------------------------------------------------------

const getResearchByProspectSQL = `SELECT id, user_id, organization_id, prospect_id, created_at
	FROM research_records WHERE prospect_id = $1`

// GetResearchByProspect returns the research record for a prospect.
// Returns domain.ErrNotFound if none exists.
func (r *Repo) GetResearchByProspect(ctx context.Context, prospectID uuid.UUID) (*domain.ResearchRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rec domain.ResearchRecord
	err := q.QueryRow(ctx, getResearchByProspectSQL, prospectID).Scan(
		&rec.ID, &rec.UserID, &rec.OrganizationID, &rec.ProspectID, &rec.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "research_record", prospectID)
	}
	return &rec, nil
}

const createResearchSQL = `INSERT INTO research_records (
	id, user_id, organization_id, prospect_id, created_at
) VALUES ($1,$2,$3,$4,$5)
RETURNING id, user_id, organization_id, prospect_id, created_at`

// CreateResearch inserts a research record.
// Returns domain.ErrAlreadyExists if the prospect already has one.
func (r *Repo) CreateResearch(ctx context.Context, rec *domain.ResearchRecord) (*domain.ResearchRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var saved domain.ResearchRecord
	err := q.QueryRow(ctx, createResearchSQL,
		rec.ID, rec.UserID, rec.OrganizationID, rec.ProspectID, rec.CreatedAt,
	).Scan(&saved.ID, &saved.UserID, &saved.OrganizationID, &saved.ProspectID, &saved.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "research_record", rec.ID)
	}
	return &saved, nil
}

// ---------------------------------------------------------------------------
// Prep records
// ---------------------------------------------------------------------------

const getPrepByMeetingSQL = `SELECT id, user_id, organization_id, meeting_id, subject, created_at
	FROM prep_records WHERE meeting_id = $1`

// GetPrepByMeeting returns the preparation record for a meeting.
// Returns domain.ErrNotFound if none exists.
func (r *Repo) GetPrepByMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.PrepRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rec domain.PrepRecord
	err := q.QueryRow(ctx, getPrepByMeetingSQL, meetingID).Scan(
		&rec.ID, &rec.UserID, &rec.OrganizationID, &rec.MeetingID, &rec.Subject, &rec.CreatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "prep_record", meetingID)
	}
	return &rec, nil
}

const createPrepSQL = `INSERT INTO prep_records (
	id, user_id, organization_id, meeting_id, subject, created_at
) VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, user_id, organization_id, meeting_id, subject, created_at`

// CreatePrep inserts a preparation record.
// Returns domain.ErrAlreadyExists if the meeting already has one.
func (r *Repo) CreatePrep(ctx context.Context, rec *domain.PrepRecord) (*domain.PrepRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var saved domain.PrepRecord
	err := q.QueryRow(ctx, createPrepSQL,
		rec.ID, rec.UserID, rec.OrganizationID, rec.MeetingID, rec.Subject, rec.CreatedAt,
	).Scan(&saved.ID, &saved.UserID, &saved.OrganizationID, &saved.MeetingID, &saved.Subject, &saved.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "prep_record", rec.ID)
	}
	return &saved, nil
}
