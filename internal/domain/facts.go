package domain

import (
	"time"

	"github.com/google/uuid"
)

// Prospect is a person or account the user is working. Produced by the
// CRM sync pipeline; read-only to the engine.
type Prospect struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	DisplayName    string
	CreatedAt      time.Time
}

// Meeting is a calendar event synced for the user. EndedAt is set once
// the meeting has concluded (by the transcription pipeline).
type Meeting struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	ProspectID     *uuid.UUID
	Title          string
	StartsAt       time.Time
	EndedAt        *time.Time
	CreatedAt      time.Time
}

// Followup is a drafted post-meeting followup awaiting generation.
type Followup struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	MeetingID uuid.UUID
	Kind      MessageType // SEND_FOLLOWUP_EMAIL or CREATE_ACTION_ITEMS
	CreatedAt time.Time
}

// ResearchRecord marks that research for a prospect exists or is in
// flight. Its existence is the executor's idempotency check.
type ResearchRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	ProspectID     uuid.UUID
	CreatedAt      time.Time
}

// PrepRecord marks that a meeting preparation document exists or is in
// flight, keyed by meeting id.
type PrepRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	MeetingID      uuid.UUID
	Subject        string
	CreatedAt      time.Time
}
