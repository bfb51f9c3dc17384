// Package settings implements the per-user Luna settings repository
// using PostgreSQL.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lunahq/luna-backend/internal/adapter/postgres"
	"github.com/lunahq/luna-backend/internal/domain"
)

// Repo provides settings persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new settings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSettingsSQL = `SELECT user_id, organization_id, mode, disabled_types, snooze_default, updated_at
	FROM luna_settings WHERE user_id = $1`

// Get returns the user's settings.
// Returns domain.ErrNotFound if the user has never saved any.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		s        domain.Settings
		mode     string
		disabled []string
		snooze   string
	)
	err := q.QueryRow(ctx, getSettingsSQL, userID).Scan(
		&s.UserID, &s.OrganizationID, &mode, &disabled, &snooze, &s.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "settings", userID)
	}

	s.Mode = domain.LunaMode(mode)
	s.SnoozeDefault = domain.SnoozeOption(snooze)
	for _, d := range disabled {
		s.DisabledTypes = append(s.DisabledTypes, domain.MessageType(d))
	}
	return &s, nil
}

// GetOrDefault returns the user's settings, falling back to defaults for
// a user who has never saved any.
func (r *Repo) GetOrDefault(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error) {
	s, err := r.Get(ctx, userID)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultSettings(userID, orgID), nil
	}
	return nil, err
}

const upsertSettingsSQL = `INSERT INTO luna_settings (
	user_id, organization_id, mode, disabled_types, snooze_default, updated_at
) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id) DO UPDATE SET
	mode = EXCLUDED.mode,
	disabled_types = EXCLUDED.disabled_types,
	snooze_default = EXCLUDED.snooze_default,
	updated_at = EXCLUDED.updated_at
RETURNING user_id, organization_id, mode, disabled_types, snooze_default, updated_at`

// Upsert saves the user's settings, creating the row on first write.
func (r *Repo) Upsert(ctx context.Context, s *domain.Settings) (*domain.Settings, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	disabled := make([]string, len(s.DisabledTypes))
	for i, t := range s.DisabledTypes {
		disabled[i] = string(t)
	}

	var (
		saved       domain.Settings
		mode        string
		disabledOut []string
		snooze      string
	)
	err := q.QueryRow(ctx, upsertSettingsSQL,
		s.UserID, s.OrganizationID, string(s.Mode), disabled, string(s.SnoozeDefault), s.UpdatedAt,
	).Scan(&saved.UserID, &saved.OrganizationID, &mode, &disabledOut, &snooze, &saved.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "settings", s.UserID)
	}

	saved.Mode = domain.LunaMode(mode)
	saved.SnoozeDefault = domain.SnoozeOption(snooze)
	for _, d := range disabledOut {
		saved.DisabledTypes = append(saved.DisabledTypes, domain.MessageType(d))
	}
	return &saved, nil
}

const listActiveSQL = `SELECT user_id, organization_id, mode, disabled_types, snooze_default, updated_at
	FROM luna_settings WHERE mode <> $1 ORDER BY user_id`

// ListActive returns settings for every user whose mode is not off, in
// a stable order so detection sweep runs are reproducible.
func (r *Repo) ListActive(ctx context.Context) ([]*domain.Settings, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listActiveSQL, string(domain.LunaModeOff))
	if err != nil {
		return nil, fmt.Errorf("list active settings: %w", err)
	}

	all, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Settings, error) {
		var (
			s        domain.Settings
			mode     string
			disabled []string
			snooze   string
		)
		err := row.Scan(&s.UserID, &s.OrganizationID, &mode, &disabled, &snooze, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		s.Mode = domain.LunaMode(mode)
		s.SnoozeDefault = domain.SnoozeOption(snooze)
		for _, d := range disabled {
			s.DisabledTypes = append(s.DisabledTypes, domain.MessageType(d))
		}
		return &s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan active settings: %w", err)
	}
	return all, nil
}
