package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunahq/luna-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedSettings creates a luna_settings row with ACTIVE mode and default
// snooze. Returns the filled domain.Settings.
func SeedSettings(t *testing.T, pool *pgxpool.Pool, userID, orgID uuid.UUID) *domain.Settings {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := domain.DefaultSettings(userID, orgID)
	s.UpdatedAt = now

	disabled := make([]string, 0, len(s.DisabledTypes))
	for _, d := range s.DisabledTypes {
		disabled = append(disabled, d.String())
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO luna_settings (user_id, organization_id, mode, disabled_types, snooze_default, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.UserID, s.OrganizationID, s.Mode.String(), disabled, s.SnoozeDefault.String(), s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSettings insert: %v", err)
	}

	return s
}

// SeedProspect creates a prospect for the user. Returns the filled
// domain.Prospect.
func SeedProspect(t *testing.T, pool *pgxpool.Pool, userID, orgID uuid.UUID) domain.Prospect {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.Prospect{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		DisplayName:    "Prospect " + uniqueSuffix(),
		CreatedAt:      now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO prospects (id, user_id, organization_id, display_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.OrganizationID, p.DisplayName, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedProspect insert: %v", err)
	}

	return p
}

// SeedMeeting creates an upcoming meeting optionally linked to a
// prospect. Pass nil prospectID for a meeting with no CRM match.
func SeedMeeting(t *testing.T, pool *pgxpool.Pool, userID, orgID uuid.UUID, prospectID *uuid.UUID) domain.Meeting {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	m := domain.Meeting{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		ProspectID:     prospectID,
		Title:          "Meeting " + uniqueSuffix(),
		StartsAt:       now.Add(2 * time.Hour),
		CreatedAt:      now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO meetings (id, user_id, organization_id, prospect_id, title, starts_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.UserID, m.OrganizationID, m.ProspectID, m.Title, m.StartsAt, m.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMeeting insert: %v", err)
	}

	return m
}

// SeedFollowup creates an ungenerated followup for a meeting.
func SeedFollowup(t *testing.T, pool *pgxpool.Pool, userID, meetingID uuid.UUID, kind domain.MessageType) domain.Followup {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	f := domain.Followup{
		ID:        uuid.New(),
		UserID:    userID,
		MeetingID: meetingID,
		Kind:      kind,
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO followups (id, user_id, meeting_id, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.UserID, f.MeetingID, f.Kind.String(), f.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFollowup insert: %v", err)
	}

	return f
}
