package domain

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds a user's Luna preferences. Read by the detector and
// the admission pass; mutated only through the settings service.
type Settings struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Mode           LunaMode
	// DisabledTypes lists message types the user has switched off.
	DisabledTypes []MessageType
	SnoozeDefault SnoozeOption
	UpdatedAt     time.Time
}

// DefaultSettings returns the settings applied to a user who has never
// saved any.
func DefaultSettings(userID, orgID uuid.UUID) *Settings {
	return &Settings{
		UserID:         userID,
		OrganizationID: orgID,
		Mode:           LunaModeActive,
		SnoozeDefault:  Snooze1Hour,
	}
}

// TypeEnabled reports whether the user accepts messages of type t.
func (s *Settings) TypeEnabled(t MessageType) bool {
	if s.Mode == LunaModeOff {
		return false
	}
	for _, d := range s.DisabledTypes {
		if d == t {
			return false
		}
	}
	return true
}
