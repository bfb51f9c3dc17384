// Package jobs defines the job kinds and payloads that flow through the
// outbox queue. Inbound kinds are consumed by our own worker; outbound
// kinds are events for the downstream research, prep and followup
// pipelines, which honor the idempotency key for exactly-once effect.
package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Inbound job kinds, claimed by the worker.
const (
	KindExecuteAction = "luna.execute_action"
	KindDetectUser    = "luna.detect_user"
)

// Outbound event kinds, consumed by downstream pipelines.
const (
	KindResearchStart    = "research.start"
	KindPrepStart        = "prep.start"
	KindFollowupGenerate = "followup.generate"
)

// InboundKinds lists the kinds the worker claims from the queue.
func InboundKinds() []string {
	return []string{KindExecuteAction, KindDetectUser}
}

// ExecuteActionPayload carries an accepted message to the executor.
type ExecuteActionPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// DetectUserPayload requests an immediate detection pass for one user.
type DetectUserPayload struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// ResearchStartPayload tells the research pipeline to start working a
// prospect.
type ResearchStartPayload struct {
	ResearchID     uuid.UUID `json:"research_id"`
	ProspectID     uuid.UUID `json:"prospect_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// PrepStartPayload tells the prep pipeline to build a meeting prep doc.
type PrepStartPayload struct {
	PrepID         uuid.UUID `json:"prep_id"`
	MeetingID      uuid.UUID `json:"meeting_id"`
	Subject        string    `json:"subject"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// FollowupGeneratePayload tells the followup pipeline to draft content
// for a finished meeting. Kind distinguishes email drafts from action
// item extraction.
type FollowupGeneratePayload struct {
	FollowupID uuid.UUID `json:"followup_id"`
	Kind       string    `json:"kind"`
	UserID     uuid.UUID `json:"user_id"`
}

// ExecuteActionKey dedupes execution per message: a message is executed
// at most once no matter how often accept is retried.
func ExecuteActionKey(messageID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", KindExecuteAction, messageID)
}

// DetectUserKey dedupes on-demand detection per user within a minute
// bucket, collapsing bursts of surface opens into one pass.
func DetectUserKey(userID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s", KindDetectUser, userID, now.UTC().Truncate(time.Minute).Format(time.RFC3339))
}

// ResearchStartKey dedupes the research event per prospect.
func ResearchStartKey(prospectID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", KindResearchStart, prospectID)
}

// PrepStartKey dedupes the prep event per meeting.
func PrepStartKey(meetingID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", KindPrepStart, meetingID)
}

// FollowupGenerateKey dedupes followup generation per followup and kind.
func FollowupGenerateKey(followupID uuid.UUID, kind string) string {
	return fmt.Sprintf("%s:%s:%s", KindFollowupGenerate, followupID, kind)
}
