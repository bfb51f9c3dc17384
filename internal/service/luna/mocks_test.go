package luna

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
)

// Hand-rolled mocks in the moq shape: a Func field per method plus a
// Calls accessor. A method invoked without its Func set panics, which
// surfaces unexpected repo usage immediately in tests.

type messageRepoMock struct {
	mu sync.Mutex

	GetByIDFunc           func(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	ListNonTerminalFunc   func(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error)
	ListForSurfaceFunc    func(ctx context.Context, userID uuid.UUID, surface domain.Surface, statuses []domain.MessageStatus) ([]*domain.Message, error)
	CountVisibleFunc      func(ctx context.Context, userID uuid.UUID) (int, error)
	HasCompletedFunc      func(ctx context.Context, userID uuid.UUID, t domain.MessageType) (bool, error)
	CreateFunc            func(ctx context.Context, m *domain.Message) (*domain.Message, error)
	MarkShownFunc         func(ctx context.Context, userID, messageID uuid.UUID, now time.Time) error
	DecideFunc            func(ctx context.Context, userID, messageID uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error)
	SnoozeFunc            func(ctx context.Context, userID, messageID uuid.UUID, until, now time.Time) (*domain.Message, error)
	WakeDueSnoozedFunc    func(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	WakeAllDueSnoozedFunc func(ctx context.Context, now time.Time) (int, error)
	ExpireStaleFunc       func(ctx context.Context, now time.Time) (int, error)
	CompleteFunc          func(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	FailFunc              func(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) (*domain.Message, error)
	RecordErrorFunc       func(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) error

	createCalls    []*domain.Message
	markShownCalls []uuid.UUID
	decideCalls    []domain.MessageStatus
	failCalls      []string
	recordCalls    []string
	completeCalls  []uuid.UUID
}

func (m *messageRepoMock) GetByID(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return m.GetByIDFunc(ctx, userID, messageID)
}

func (m *messageRepoMock) ListNonTerminal(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	return m.ListNonTerminalFunc(ctx, userID)
}

func (m *messageRepoMock) ListForSurface(ctx context.Context, userID uuid.UUID, surface domain.Surface, statuses []domain.MessageStatus) ([]*domain.Message, error) {
	return m.ListForSurfaceFunc(ctx, userID, surface, statuses)
}

func (m *messageRepoMock) CountVisible(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.CountVisibleFunc(ctx, userID)
}

func (m *messageRepoMock) HasCompleted(ctx context.Context, userID uuid.UUID, t domain.MessageType) (bool, error) {
	return m.HasCompletedFunc(ctx, userID, t)
}

func (m *messageRepoMock) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, msg)
	m.mu.Unlock()
	return m.CreateFunc(ctx, msg)
}

func (m *messageRepoMock) MarkShown(ctx context.Context, userID, messageID uuid.UUID, now time.Time) error {
	m.mu.Lock()
	m.markShownCalls = append(m.markShownCalls, messageID)
	m.mu.Unlock()
	return m.MarkShownFunc(ctx, userID, messageID, now)
}

func (m *messageRepoMock) Decide(ctx context.Context, userID, messageID uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error) {
	m.mu.Lock()
	m.decideCalls = append(m.decideCalls, to)
	m.mu.Unlock()
	return m.DecideFunc(ctx, userID, messageID, to, now)
}

func (m *messageRepoMock) Snooze(ctx context.Context, userID, messageID uuid.UUID, until, now time.Time) (*domain.Message, error) {
	return m.SnoozeFunc(ctx, userID, messageID, until, now)
}

func (m *messageRepoMock) WakeDueSnoozed(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	return m.WakeDueSnoozedFunc(ctx, userID, now)
}

func (m *messageRepoMock) WakeAllDueSnoozed(ctx context.Context, now time.Time) (int, error) {
	return m.WakeAllDueSnoozedFunc(ctx, now)
}

func (m *messageRepoMock) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	return m.ExpireStaleFunc(ctx, now)
}

func (m *messageRepoMock) Complete(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	m.mu.Lock()
	m.completeCalls = append(m.completeCalls, messageID)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, userID, messageID)
}

func (m *messageRepoMock) Fail(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) (*domain.Message, error) {
	m.mu.Lock()
	m.failCalls = append(m.failCalls, code)
	m.mu.Unlock()
	return m.FailFunc(ctx, userID, messageID, code, errMessage, retryable)
}

func (m *messageRepoMock) RecordError(ctx context.Context, userID, messageID uuid.UUID, code, errMessage string, retryable bool) error {
	m.mu.Lock()
	m.recordCalls = append(m.recordCalls, code)
	m.mu.Unlock()
	return m.RecordErrorFunc(ctx, userID, messageID, code, errMessage, retryable)
}

func (m *messageRepoMock) CreateCalls() []*domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *messageRepoMock) MarkShownCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markShownCalls
}

func (m *messageRepoMock) DecideCalls() []domain.MessageStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decideCalls
}

func (m *messageRepoMock) FailCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failCalls
}

func (m *messageRepoMock) RecordErrorCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordCalls
}

func (m *messageRepoMock) CompleteCalls() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}

type settingsRepoMock struct {
	GetOrDefaultFunc func(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error)
	UpsertFunc       func(ctx context.Context, s *domain.Settings) (*domain.Settings, error)
	ListActiveFunc   func(ctx context.Context) ([]*domain.Settings, error)
}

func (m *settingsRepoMock) GetOrDefault(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error) {
	return m.GetOrDefaultFunc(ctx, userID, orgID)
}

func (m *settingsRepoMock) Upsert(ctx context.Context, s *domain.Settings) (*domain.Settings, error) {
	return m.UpsertFunc(ctx, s)
}

func (m *settingsRepoMock) ListActive(ctx context.Context) ([]*domain.Settings, error) {
	return m.ListActiveFunc(ctx)
}

type factsRepoMock struct {
	ProspectsWithoutResearchFunc    func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Prospect, error)
	UpcomingMeetingsWithoutPrepFunc func(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Meeting, error)
	GetMeetingFunc                  func(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error)
	PendingFollowupsFunc            func(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Followup, error)
	FollowupExistsFunc              func(ctx context.Context, userID, followupID uuid.UUID) (bool, error)
	ProspectDisplayNameFunc         func(ctx context.Context, prospectID uuid.UUID) (string, error)
}

func (m *factsRepoMock) ProspectsWithoutResearch(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Prospect, error) {
	return m.ProspectsWithoutResearchFunc(ctx, userID, since)
}

func (m *factsRepoMock) UpcomingMeetingsWithoutPrep(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Meeting, error) {
	return m.UpcomingMeetingsWithoutPrepFunc(ctx, userID, from, to)
}

func (m *factsRepoMock) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.Meeting, error) {
	return m.GetMeetingFunc(ctx, meetingID)
}

func (m *factsRepoMock) PendingFollowups(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.Followup, error) {
	return m.PendingFollowupsFunc(ctx, userID, since)
}

func (m *factsRepoMock) FollowupExists(ctx context.Context, userID, followupID uuid.UUID) (bool, error) {
	return m.FollowupExistsFunc(ctx, userID, followupID)
}

func (m *factsRepoMock) ProspectDisplayName(ctx context.Context, prospectID uuid.UUID) (string, error) {
	return m.ProspectDisplayNameFunc(ctx, prospectID)
}

type researchRepoMock struct {
	GetResearchByProspectFunc func(ctx context.Context, prospectID uuid.UUID) (*domain.ResearchRecord, error)
	CreateResearchFunc        func(ctx context.Context, rec *domain.ResearchRecord) (*domain.ResearchRecord, error)
	GetPrepByMeetingFunc      func(ctx context.Context, meetingID uuid.UUID) (*domain.PrepRecord, error)
	CreatePrepFunc            func(ctx context.Context, rec *domain.PrepRecord) (*domain.PrepRecord, error)
}

func (m *researchRepoMock) GetResearchByProspect(ctx context.Context, prospectID uuid.UUID) (*domain.ResearchRecord, error) {
	return m.GetResearchByProspectFunc(ctx, prospectID)
}

func (m *researchRepoMock) CreateResearch(ctx context.Context, rec *domain.ResearchRecord) (*domain.ResearchRecord, error) {
	return m.CreateResearchFunc(ctx, rec)
}

func (m *researchRepoMock) GetPrepByMeeting(ctx context.Context, meetingID uuid.UUID) (*domain.PrepRecord, error) {
	return m.GetPrepByMeetingFunc(ctx, meetingID)
}

func (m *researchRepoMock) CreatePrep(ctx context.Context, rec *domain.PrepRecord) (*domain.PrepRecord, error) {
	return m.CreatePrepFunc(ctx, rec)
}

type enqueueCall struct {
	kind string
	key  string
}

type jobQueueMock struct {
	mu          sync.Mutex
	EnqueueFunc func(ctx context.Context, kind, idempotencyKey string, payload any, now time.Time) (bool, error)
	calls       []enqueueCall
}

func (m *jobQueueMock) Enqueue(ctx context.Context, kind, idempotencyKey string, payload any, now time.Time) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, enqueueCall{kind: kind, key: idempotencyKey})
	m.mu.Unlock()
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, kind, idempotencyKey, payload, now)
	}
	return true, nil
}

func (m *jobQueueMock) EnqueueCalls() []enqueueCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// txManagerMock runs the callback inline with no real transaction.
type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (txManagerMock) LockUser(ctx context.Context, userID uuid.UUID) error { return nil }
