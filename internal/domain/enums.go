package domain

import "time"

// MessageType identifies the kind of proactive message Luna offers.
type MessageType string

const (
	MessageTypeStartResearch     MessageType = "START_RESEARCH"
	MessageTypeCreatePrep        MessageType = "CREATE_PREP"
	MessageTypeSendFollowupEmail MessageType = "SEND_FOLLOWUP_EMAIL"
	MessageTypeCreateActionItems MessageType = "CREATE_ACTION_ITEMS"
	MessageTypeNavigate          MessageType = "NAVIGATE"
	MessageTypeInline            MessageType = "INLINE"
)

func (t MessageType) String() string { return string(t) }

func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeStartResearch, MessageTypeCreatePrep, MessageTypeSendFollowupEmail,
		MessageTypeCreateActionItems, MessageTypeNavigate, MessageTypeInline:
		return true
	}
	return false
}

// ActionType classifies what accepting a message triggers.
type ActionType string

const (
	ActionTypeExecute  ActionType = "EXECUTE"
	ActionTypeNavigate ActionType = "NAVIGATE"
	ActionTypeInline   ActionType = "INLINE"
)

func (a ActionType) String() string { return string(a) }

func (a ActionType) IsValid() bool {
	switch a {
	case ActionTypeExecute, ActionTypeNavigate, ActionTypeInline:
		return true
	}
	return false
}

// ActionTypeFor returns the action classification of a message type.
func ActionTypeFor(t MessageType) ActionType {
	switch t {
	case MessageTypeNavigate:
		return ActionTypeNavigate
	case MessageTypeInline:
		return ActionTypeInline
	default:
		return ActionTypeExecute
	}
}

// MessageStatus represents the lifecycle state of a message.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "PENDING"
	MessageStatusShown     MessageStatus = "SHOWN"
	MessageStatusAccepted  MessageStatus = "ACCEPTED"
	MessageStatusDismissed MessageStatus = "DISMISSED"
	MessageStatusSnoozed   MessageStatus = "SNOOZED"
	MessageStatusCompleted MessageStatus = "COMPLETED"
	MessageStatusFailed    MessageStatus = "FAILED"
	MessageStatusExpired   MessageStatus = "EXPIRED"
)

func (s MessageStatus) String() string { return string(s) }

func (s MessageStatus) IsValid() bool {
	switch s {
	case MessageStatusPending, MessageStatusShown, MessageStatusAccepted,
		MessageStatusDismissed, MessageStatusSnoozed, MessageStatusCompleted,
		MessageStatusFailed, MessageStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s MessageStatus) IsTerminal() bool {
	switch s {
	case MessageStatusDismissed, MessageStatusCompleted, MessageStatusFailed, MessageStatusExpired:
		return true
	}
	return false
}

// Surface identifies where a message may be displayed.
type Surface string

const (
	SurfaceHome    Surface = "HOME"
	SurfaceChat    Surface = "CHAT"
	SurfaceMeeting Surface = "MEETING"
)

func (s Surface) String() string { return string(s) }

func (s Surface) IsValid() bool {
	switch s {
	case SurfaceHome, SurfaceChat, SurfaceMeeting:
		return true
	}
	return false
}

// SnoozeOption is one of the snooze delays a user may pick.
type SnoozeOption string

const (
	Snooze30Minutes SnoozeOption = "30M"
	Snooze1Hour     SnoozeOption = "1H"
	Snooze4Hours    SnoozeOption = "4H"
	Snooze1Day      SnoozeOption = "1D"
)

func (o SnoozeOption) String() string { return string(o) }

func (o SnoozeOption) IsValid() bool {
	switch o {
	case Snooze30Minutes, Snooze1Hour, Snooze4Hours, Snooze1Day:
		return true
	}
	return false
}

// Duration returns the snooze delay for the option.
func (o SnoozeOption) Duration() time.Duration {
	switch o {
	case Snooze30Minutes:
		return 30 * time.Minute
	case Snooze1Hour:
		return time.Hour
	case Snooze4Hours:
		return 4 * time.Hour
	case Snooze1Day:
		return 24 * time.Hour
	}
	return 0
}

// LunaMode controls how the engine behaves for a user.
type LunaMode string

const (
	// LunaModeOff disables detection entirely.
	LunaModeOff LunaMode = "OFF"
	// LunaModeShadow detects and persists messages but never shows them.
	LunaModeShadow LunaMode = "SHADOW"
	// LunaModeActive is the full pipeline.
	LunaModeActive LunaMode = "ACTIVE"
)

func (m LunaMode) String() string { return string(m) }

func (m LunaMode) IsValid() bool {
	switch m {
	case LunaModeOff, LunaModeShadow, LunaModeActive:
		return true
	}
	return false
}
