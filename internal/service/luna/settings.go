package luna

import (
	"context"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
)

// UpdateSettingsInput carries a full replacement of the user's engine
// settings. Zero values fall back to the defaults.
type UpdateSettingsInput struct {
	Mode          domain.LunaMode
	DisabledTypes []domain.MessageType
	SnoozeDefault domain.SnoozeOption
}

// Validate checks the input against the known enums.
func (in *UpdateSettingsInput) Validate() error {
	var errs []domain.FieldError
	if in.Mode != "" && !in.Mode.IsValid() {
		errs = append(errs, domain.FieldError{Field: "mode", Message: "unknown mode"})
	}
	if in.SnoozeDefault != "" && !in.SnoozeDefault.IsValid() {
		errs = append(errs, domain.FieldError{Field: "snooze_default", Message: "unknown snooze option"})
	}
	for _, t := range in.DisabledTypes {
		if !t.IsValid() {
			errs = append(errs, domain.FieldError{Field: "disabled_types", Message: "unknown message type " + t.String()})
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// GetSettings returns the user's engine settings, defaulted when the
// user has never changed them.
func (s *Service) GetSettings(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error) {
	return s.settings.GetOrDefault(ctx, userID, orgID)
}

// UpdateSettings replaces the user's engine settings. Turning the mode
// off stops future detection; already-visible messages stay until they
// are decided or expire.
func (s *Service) UpdateSettings(ctx context.Context, userID, orgID uuid.UUID, in UpdateSettingsInput) (*domain.Settings, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	next := domain.DefaultSettings(userID, orgID)
	if in.Mode != "" {
		next.Mode = in.Mode
	}
	if in.SnoozeDefault != "" {
		next.SnoozeDefault = in.SnoozeDefault
	}
	next.DisabledTypes = in.DisabledTypes
	next.UpdatedAt = s.now()

	return s.settings.Upsert(ctx, next)
}
