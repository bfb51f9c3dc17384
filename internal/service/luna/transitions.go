package luna

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/jobs"
)

// Accept records the user's decision on a shown message and enqueues
// the execution job. The enqueue is keyed per message, so a retried
// accept call never schedules a second execution.
func (s *Service) Accept(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	now := s.now()

	var msg *domain.Message
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.messages.Decide(txCtx, userID, messageID, domain.MessageStatusAccepted, now)
		if err != nil {
			return err
		}
		msg = m

		_, err = s.queue.Enqueue(txCtx, jobs.KindExecuteAction,
			jobs.ExecuteActionKey(m.ID),
			jobs.ExecuteActionPayload{
				MessageID:      m.ID,
				UserID:         m.UserID,
				OrganizationID: m.OrganizationID,
			}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("message accepted",
		slog.String("message_id", msg.ID.String()),
		slog.String("type", msg.Type.String()),
	)
	return msg, nil
}

// Dismiss permanently declines a shown message.
func (s *Service) Dismiss(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return s.messages.Decide(ctx, userID, messageID, domain.MessageStatusDismissed, s.now())
}

// Snooze parks a shown message for the chosen delay, or the user's
// default delay when none is given. The message returns to pending when
// the delay elapses; a snooze past the deadline extends it to the wake
// time, the only operation allowed to move expires_at.
func (s *Service) Snooze(ctx context.Context, userID, orgID, messageID uuid.UUID, option domain.SnoozeOption) (*domain.Message, error) {
	if option == "" {
		settings, err := s.settings.GetOrDefault(ctx, userID, orgID)
		if err != nil {
			return nil, err
		}
		option = settings.SnoozeDefault
	}
	if !option.IsValid() {
		return nil, domain.NewValidationError("snooze_option", "unknown snooze option")
	}

	now := s.now()
	return s.messages.Snooze(ctx, userID, messageID, now.Add(option.Duration()), now)
}
