// Package luna implements the proactive message engine: detection of
// actionable situations, prioritized admission onto user surfaces, the
// message lifecycle transitions, action execution and expiry sweeping.
package luna

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/config"
	"github.com/lunahq/luna-backend/internal/domain"
)

type messageRepo interface {
	GetByID(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	ListNonTerminal(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error)
	ListForSurface(ctx context.Context, userID uuid.UUID, surface domain.Surface, statuses []domain.MessageStatus) ([]*domain.Message, error)
	CountVisible(ctx context.Context, userID uuid.UUID) (int, error)
	HasCompleted(ctx context.Context, userID uuid.UUID, t domain.MessageType) (bool, error)
	Create(ctx context.Context, m *domain.Message) (*domain.Message, error)
	MarkShown(ctx context.Context, userID, messageID uuid.UUID, now time.Time) error
	Decide(ctx context.Context, userID, messageID uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error)
	Snooze(ctx context.Context, userID, messageID uuid.UUID, until, now time.Time) (*domain.Message, error)
	WakeDueSnoozed(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	WakeAllDueSnoozed(ctx context.Context, now time.Time) (int, error)
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	Complete(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	Fail(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) (*domain.Message, error)
	RecordError(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) error
}

type settingsRepo interface {
	GetOrDefault(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error)
	Upsert(ctx context.Context, s *domain.Settings) (*domain.Settings, error)
	ListActive(ctx context.Context) ([]*domain.Settings, error)
}

type factsRepo interface {
	ProspectsWithoutResearch(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Prospect, error)
	UpcomingMeetingsWithoutPrep(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Meeting, error)
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error)
	PendingFollowups(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Followup, error)
	FollowupExists(ctx context.Context, userID, followupID uuid.UUID) (bool, error)
	ProspectDisplayName(ctx context.Context, prospectID uuid.UUID) (string, error)
}

type researchRepo interface {
	GetResearchByProspect(ctx context.Context, prospectID uuid.UUID) (*domain.ResearchRecord, error)
	CreateResearch(ctx context.Context, rec *domain.ResearchRecord) (*domain.ResearchRecord, error)
	GetPrepByMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.PrepRecord, error)
	CreatePrep(ctx context.Context, rec *domain.PrepRecord) (*domain.PrepRecord, error)
}

type jobQueue interface {
	Enqueue(ctx context.Context, kind, idempotencyKey string, payload any, now time.Time) (bool, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockUser(ctx context.Context, userID uuid.UUID) error
}

// Service is the Luna engine. All operations are safe for concurrent
// use; per-user admission is serialized through an advisory lock.
type Service struct {
	log      *slog.Logger
	cfg      config.LunaConfig
	policy   domain.Policy
	messages messageRepo
	settings settingsRepo
	facts    factsRepo
	research researchRepo
	queue    jobQueue
	tx       txManager

	now func() time.Time
}

// NewService creates a new Luna service. The policy must already be
// validated (app.Setup does this at boot).
func NewService(
	log *slog.Logger,
	cfg config.LunaConfig,
	policy domain.Policy,
	messages messageRepo,
	settings settingsRepo,
	facts factsRepo,
	research researchRepo,
	queue jobQueue,
	tx txManager,
) *Service {
	return &Service{
		log:      log.With("service", "luna"),
		cfg:      cfg,
		policy:   policy,
		messages: messages,
		settings: settings,
		facts:    facts,
		research: research,
		queue:    queue,
		tx:       tx,
		now:      time.Now,
	}
}
