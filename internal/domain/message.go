package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionData is the opaque structured payload a message carries for its
// action (prospect id, meeting id, followup id, navigation target).
type ActionData map[string]string

// Field returns the value for key, or a ValidationError if it is absent
// or empty. Missing action data is non-retryable: redelivery cannot
// supply the field.
func (d ActionData) Field(key string) (string, error) {
	if v, ok := d[key]; ok && v != "" {
		return v, nil
	}
	return "", NewValidationError(key, "required action_data field missing")
}

// Well-known action_data keys.
const (
	ActionDataProspectID = "prospect_id"
	ActionDataMeetingID  = "meeting_id"
	ActionDataFollowupID = "followup_id"
	ActionDataTarget     = "target"
)

// Message is a time-boxed unit of proactive assistant output offered to
// a user. Status transitions are monotonic; see CanTransition.
type Message struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Type           MessageType
	ActionType     ActionType
	Status         MessageStatus
	Priority       int
	ActionData     ActionData
	Surface        Surface
	DependsOn      *MessageType
	CreatedAt      time.Time
	ShownAt        *time.Time
	DecidedAt      *time.Time
	SnoozedUntil   *time.Time
	ExpiresAt      time.Time
	ErrorCode      *string
	ErrorMessage   *string
	Retryable      bool
}

// DraftMessage is a detector-produced candidate that has not been
// admitted yet. Priority, surface, TTL and dependency are filled in
// from the policy at admission time.
type DraftMessage struct {
	Type       MessageType
	ActionData ActionData
}

// allowedTransitions encodes the message state machine. Absent states
// are terminal.
var allowedTransitions = map[MessageStatus][]MessageStatus{
	MessageStatusPending:  {MessageStatusShown, MessageStatusExpired},
	MessageStatusShown:    {MessageStatusAccepted, MessageStatusDismissed, MessageStatusSnoozed, MessageStatusExpired},
	MessageStatusSnoozed:  {MessageStatusPending, MessageStatusExpired},
	MessageStatusAccepted: {MessageStatusCompleted, MessageStatusFailed},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to MessageStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsVisible reports whether the message occupies a visible slot.
func (m *Message) IsVisible() bool {
	return m.Status == MessageStatusShown
}

// IsOutstanding reports whether the message still blocks a new offer of
// the same sequential type (any non-terminal state).
func (m *Message) IsOutstanding() bool {
	return !m.Status.IsTerminal()
}

// IsExpired reports whether the message has passed its deadline and is
// still in a sweepable state. Accepted messages are left for the
// executor to resolve.
func (m *Message) IsExpired(now time.Time) bool {
	if m.Status.IsTerminal() || m.Status == MessageStatusAccepted {
		return false
	}
	return now.After(m.ExpiresAt)
}

// SnoozeDue reports whether a snoozed message should return to pending.
func (m *Message) SnoozeDue(now time.Time) bool {
	return m.Status == MessageStatusSnoozed && m.SnoozedUntil != nil && !now.Before(*m.SnoozedUntil)
}
