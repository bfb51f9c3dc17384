package luna

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/jobs"
)

func shownMessage(userID uuid.UUID, t domain.MessageType) *domain.Message {
	shownAt := testNow.Add(-time.Minute)
	return &domain.Message{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       t,
		ActionType: domain.ActionTypeFor(t),
		Status:     domain.MessageStatusShown,
		ShownAt:    &shownAt,
		CreatedAt:  testNow.Add(-time.Hour),
		ExpiresAt:  testNow.Add(23 * time.Hour),
	}
}

func TestAccept_TransitionsAndEnqueuesExecution(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	msg := shownMessage(userID, domain.MessageTypeStartResearch)

	messages := &messageRepoMock{
		DecideFunc: func(ctx context.Context, uid, mid uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error) {
			accepted := *msg
			accepted.Status = to
			accepted.DecidedAt = &now
			return &accepted, nil
		},
	}
	queue := &jobQueueMock{}

	svc := newTestService(t, messages, nil, nil, nil, queue)

	got, err := svc.Accept(context.Background(), userID, msg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.MessageStatusAccepted {
		t.Errorf("status: got %s, want %s", got.Status, domain.MessageStatusAccepted)
	}

	calls := queue.EnqueueCalls()
	if len(calls) != 1 {
		t.Fatalf("enqueue calls: got %d, want 1", len(calls))
	}
	if calls[0].kind != jobs.KindExecuteAction {
		t.Errorf("kind: got %q, want %q", calls[0].kind, jobs.KindExecuteAction)
	}
	if calls[0].key != jobs.ExecuteActionKey(msg.ID) {
		t.Errorf("key: got %q, want %q", calls[0].key, jobs.ExecuteActionKey(msg.ID))
	}
}

func TestAccept_ConflictWhenNotShown(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	messages := &messageRepoMock{
		DecideFunc: func(ctx context.Context, uid, mid uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error) {
			return nil, domain.ErrConflict
		},
	}
	queue := &jobQueueMock{}

	svc := newTestService(t, messages, nil, nil, nil, queue)

	_, err := svc.Accept(context.Background(), userID, uuid.New())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("error: got %v, want ErrConflict", err)
	}
	if len(queue.EnqueueCalls()) != 0 {
		t.Errorf("enqueue calls: got %d, want 0 after a refused decision", len(queue.EnqueueCalls()))
	}
}

func TestDismiss_Transitions(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	msg := shownMessage(userID, domain.MessageTypeNavigate)

	messages := &messageRepoMock{
		DecideFunc: func(ctx context.Context, uid, mid uuid.UUID, to domain.MessageStatus, now time.Time) (*domain.Message, error) {
			dismissed := *msg
			dismissed.Status = to
			return &dismissed, nil
		},
	}

	svc := newTestService(t, messages, nil, nil, nil, nil)

	got, err := svc.Dismiss(context.Background(), userID, msg.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.MessageStatusDismissed {
		t.Errorf("status: got %s, want %s", got.Status, domain.MessageStatusDismissed)
	}
	if calls := messages.DecideCalls(); len(calls) != 1 || calls[0] != domain.MessageStatusDismissed {
		t.Errorf("decide calls: got %v, want one dismissal", calls)
	}
}

func TestSnooze_UsesChosenOption(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	msg := shownMessage(userID, domain.MessageTypeCreatePrep)

	var gotUntil time.Time
	messages := &messageRepoMock{
		SnoozeFunc: func(ctx context.Context, uid, mid uuid.UUID, until, now time.Time) (*domain.Message, error) {
			gotUntil = until
			snoozed := *msg
			snoozed.Status = domain.MessageStatusSnoozed
			snoozed.SnoozedUntil = &until
			return &snoozed, nil
		},
	}

	svc := newTestService(t, messages, nil, nil, nil, nil)

	got, err := svc.Snooze(context.Background(), userID, uuid.New(), msg.ID, domain.Snooze4Hours)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.MessageStatusSnoozed {
		t.Errorf("status: got %s, want %s", got.Status, domain.MessageStatusSnoozed)
	}
	if want := testNow.Add(4 * time.Hour); !gotUntil.Equal(want) {
		t.Errorf("until: got %v, want %v", gotUntil, want)
	}
}

func TestSnooze_DefaultsFromSettings(t *testing.T) {
	t.Parallel()

	userID, orgID := uuid.New(), uuid.New()

	var gotUntil time.Time
	messages := &messageRepoMock{
		SnoozeFunc: func(ctx context.Context, uid, mid uuid.UUID, until, now time.Time) (*domain.Message, error) {
			gotUntil = until
			return &domain.Message{ID: mid, Status: domain.MessageStatusSnoozed}, nil
		},
	}
	settings := &settingsRepoMock{
		GetOrDefaultFunc: func(ctx context.Context, uid, oid uuid.UUID) (*domain.Settings, error) {
			s := domain.DefaultSettings(uid, oid)
			s.SnoozeDefault = domain.Snooze1Day
			return s, nil
		},
	}

	svc := newTestService(t, messages, settings, nil, nil, nil)

	if _, err := svc.Snooze(context.Background(), userID, orgID, uuid.New(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := testNow.Add(24 * time.Hour); !gotUntil.Equal(want) {
		t.Errorf("until: got %v, want %v", gotUntil, want)
	}
}

func TestSnooze_RejectsUnknownOption(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &messageRepoMock{}, nil, nil, nil, nil)

	_, err := svc.Snooze(context.Background(), uuid.New(), uuid.New(), uuid.New(), domain.SnoozeOption("2W"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error: got %v, want ErrValidation", err)
	}
}
