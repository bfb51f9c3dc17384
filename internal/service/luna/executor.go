package luna

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/jobs"
)

// fallbackSubject is used when the prospect's name cannot be resolved
// while building a prep doc.
const fallbackSubject = "your meeting"

// Execute runs the action behind an accepted message. It is the handler
// for execute jobs, which may be delivered more than once: a message
// already resolved is reported as success without repeating any work,
// and every sub-operation is idempotent on its own key.
//
// lastAttempt signals the job substrate will not retry again. Retryable
// failures are recorded on the message and re-raised so the substrate
// can apply its retry policy; on the last attempt (or a non-retryable
// failure) the message is moved to failed instead.
func (s *Service) Execute(ctx context.Context, p jobs.ExecuteActionPayload, lastAttempt bool) error {
	msg, err := s.messages.GetByID(ctx, p.UserID, p.MessageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("execute job for unknown message",
				slog.String("message_id", p.MessageID.String()))
			return nil
		}
		return err
	}

	switch msg.Status {
	case domain.MessageStatusAccepted:
	case domain.MessageStatusCompleted, domain.MessageStatusFailed:
		// Redelivery after the outcome was already recorded.
		return nil
	default:
		s.log.Warn("execute job for message not in accepted state",
			slog.String("message_id", msg.ID.String()),
			slog.String("status", msg.Status.String()),
		)
		return nil
	}

	if execErr := s.executeAction(ctx, msg); execErr != nil {
		ee := domain.ClassifyExecutionError(execErr)

		if ee.Retryable && !lastAttempt {
			if rerr := s.messages.RecordError(ctx, msg.UserID, msg.ID, ee.Code, ee.Message, true); rerr != nil {
				s.log.Error("recording execution error failed",
					slog.String("message_id", msg.ID.String()),
					slog.String("error", rerr.Error()),
				)
			}
			return ee
		}

		if _, ferr := s.messages.Fail(ctx, msg.UserID, msg.ID, ee.Code, ee.Message, ee.Retryable); ferr != nil {
			return ferr
		}
		s.log.Warn("message action failed",
			slog.String("message_id", msg.ID.String()),
			slog.String("type", msg.Type.String()),
			slog.String("code", ee.Code),
		)
		return ee
	}

	if _, err := s.messages.Complete(ctx, msg.UserID, msg.ID); err != nil {
		return err
	}
	s.log.Info("message action completed",
		slog.String("message_id", msg.ID.String()),
		slog.String("type", msg.Type.String()),
	)
	return nil
}

// executeAction dispatches on message type. Navigate and inline actions
// have no server-side effect; accepting them completes them.
func (s *Service) executeAction(ctx context.Context, msg *domain.Message) error {
	switch msg.Type {
	case domain.MessageTypeStartResearch:
		return s.executeStartResearch(ctx, msg)
	case domain.MessageTypeCreatePrep:
		return s.executeCreatePrep(ctx, msg)
	case domain.MessageTypeSendFollowupEmail, domain.MessageTypeCreateActionItems:
		return s.executeFollowup(ctx, msg)
	case domain.MessageTypeNavigate, domain.MessageTypeInline:
		return nil
	default:
		return domain.NewExecutionError(domain.ErrCodeInternal,
			"no executor for message type "+msg.Type.String(), false)
	}
}

func (s *Service) executeStartResearch(ctx context.Context, msg *domain.Message) error {
	prospectID, err := s.actionDataUUID(msg, domain.ActionDataProspectID)
	if err != nil {
		return err
	}

	rec, err := s.research.GetResearchByProspect(ctx, prospectID)
	switch {
	case err == nil:
		// Research already underway or done; just make sure the
		// pipeline event exists.
	case errors.Is(err, domain.ErrNotFound):
		rec, err = s.research.CreateResearch(ctx, &domain.ResearchRecord{
			ID:             uuid.New(),
			UserID:         msg.UserID,
			OrganizationID: msg.OrganizationID,
			ProspectID:     prospectID,
			CreatedAt:      s.now(),
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			rec, err = s.research.GetResearchByProspect(ctx, prospectID)
		}
		if err != nil {
			return err
		}
	default:
		return err
	}

	_, err = s.queue.Enqueue(ctx, jobs.KindResearchStart,
		jobs.ResearchStartKey(prospectID),
		jobs.ResearchStartPayload{
			ResearchID:     rec.ID,
			ProspectID:     prospectID,
			UserID:         msg.UserID,
			OrganizationID: msg.OrganizationID,
		}, s.now())
	return err
}

func (s *Service) executeCreatePrep(ctx context.Context, msg *domain.Message) error {
	meetingID, err := s.actionDataUUID(msg, domain.ActionDataMeetingID)
	if err != nil {
		return err
	}

	rec, err := s.research.GetPrepByMeeting(ctx, meetingID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		meeting, merr := s.facts.GetMeeting(ctx, meetingID)
		if merr != nil {
			if errors.Is(merr, domain.ErrNotFound) {
				return domain.NewExecutionError(domain.ErrCodeNotFound,
					"meeting "+meetingID.String()+" not found", false)
			}
			return merr
		}

		subject := fallbackSubject
		if meeting.ProspectID != nil {
			if name, nerr := s.facts.ProspectDisplayName(ctx, *meeting.ProspectID); nerr == nil && name != "" {
				subject = name
			}
		}

		rec, err = s.research.CreatePrep(ctx, &domain.PrepRecord{
			ID:             uuid.New(),
			UserID:         msg.UserID,
			OrganizationID: msg.OrganizationID,
			MeetingID:      meetingID,
			Subject:        subject,
			CreatedAt:      s.now(),
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			rec, err = s.research.GetPrepByMeeting(ctx, meetingID)
		}
		if err != nil {
			return err
		}
	default:
		return err
	}

	_, err = s.queue.Enqueue(ctx, jobs.KindPrepStart,
		jobs.PrepStartKey(meetingID),
		jobs.PrepStartPayload{
			PrepID:         rec.ID,
			MeetingID:      meetingID,
			Subject:        rec.Subject,
			UserID:         msg.UserID,
			OrganizationID: msg.OrganizationID,
		}, s.now())
	return err
}

func (s *Service) executeFollowup(ctx context.Context, msg *domain.Message) error {
	followupID, err := s.actionDataUUID(msg, domain.ActionDataFollowupID)
	if err != nil {
		return err
	}

	exists, err := s.facts.FollowupExists(ctx, msg.UserID, followupID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewExecutionError(domain.ErrCodeNotFound,
			"followup "+followupID.String()+" not found", false)
	}

	_, err = s.queue.Enqueue(ctx, jobs.KindFollowupGenerate,
		jobs.FollowupGenerateKey(followupID, msg.Type.String()),
		jobs.FollowupGeneratePayload{
			FollowupID: followupID,
			Kind:       msg.Type.String(),
			UserID:     msg.UserID,
		}, s.now())
	return err
}

// actionDataUUID extracts and parses a required UUID field.
func (s *Service) actionDataUUID(msg *domain.Message, key string) (uuid.UUID, error) {
	raw, err := msg.ActionData.Field(key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(key, "malformed uuid")
	}
	return id, nil
}
