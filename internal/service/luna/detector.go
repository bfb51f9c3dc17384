package luna

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/jobs"
)

// DetectReport summarizes a full detection sweep across users.
type DetectReport struct {
	Users    int
	Drafts   int
	Admitted int
	Errors   int
}

// Detect scans the user's recent facts and produces draft messages for
// situations that warrant one. A type with an outstanding non-terminal
// message is never drafted again, so repeated runs over unchanged facts
// produce nothing new. Drafts are in priority-policy-independent
// detection order; Admit does the ranking.
func (s *Service) Detect(ctx context.Context, userID, orgID uuid.UUID) ([]domain.DraftMessage, error) {
	settings, err := s.settings.GetOrDefault(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if settings.Mode == domain.LunaModeOff {
		return nil, nil
	}

	existing, err := s.messages.ListNonTerminal(ctx, userID)
	if err != nil {
		return nil, err
	}
	outstanding := make(map[domain.MessageType]bool, len(existing))
	for _, m := range existing {
		outstanding[m.Type] = true
	}

	now := s.now()
	since := now.Add(-s.cfg.DetectWindow)
	var drafts []domain.DraftMessage

	if !outstanding[domain.MessageTypeStartResearch] && settings.TypeEnabled(domain.MessageTypeStartResearch) {
		prospects, err := s.facts.ProspectsWithoutResearch(ctx, userID, since)
		if err != nil {
			return nil, err
		}
		if len(prospects) > 0 {
			// Oldest prospect first; the rest wait for the current
			// research offer to resolve.
			drafts = append(drafts, domain.DraftMessage{
				Type: domain.MessageTypeStartResearch,
				ActionData: domain.ActionData{
					domain.ActionDataProspectID: prospects[0].ID.String(),
				},
			})
		}
	}

	if !outstanding[domain.MessageTypeCreatePrep] && settings.TypeEnabled(domain.MessageTypeCreatePrep) {
		meetings, err := s.facts.UpcomingMeetingsWithoutPrep(ctx, userID, now, now.Add(s.cfg.DetectWindow))
		if err != nil {
			return nil, err
		}
		if len(meetings) > 0 {
			data := domain.ActionData{
				domain.ActionDataMeetingID: meetings[0].ID.String(),
			}
			if meetings[0].ProspectID != nil {
				data[domain.ActionDataProspectID] = meetings[0].ProspectID.String()
			}
			drafts = append(drafts, domain.DraftMessage{
				Type:       domain.MessageTypeCreatePrep,
				ActionData: data,
			})
		}
	}

	followups, err := s.facts.PendingFollowups(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for _, f := range followups {
		if outstanding[f.Kind] || !settings.TypeEnabled(f.Kind) {
			continue
		}
		drafts = append(drafts, domain.DraftMessage{
			Type: f.Kind,
			ActionData: domain.ActionData{
				domain.ActionDataFollowupID: f.ID.String(),
			},
		})
		outstanding[f.Kind] = true
	}

	return drafts, nil
}

// RequestDetection enqueues an on-demand detection pass for the user,
// typically when a surface opens. Bursts within the same minute
// collapse onto one job.
func (s *Service) RequestDetection(ctx context.Context, userID, orgID uuid.UUID) error {
	now := s.now()
	_, err := s.queue.Enqueue(ctx, jobs.KindDetectUser,
		jobs.DetectUserKey(userID, now),
		jobs.DetectUserPayload{UserID: userID, OrganizationID: orgID}, now)
	return err
}

// DetectAndAdmit runs a detection pass for one user and admits the
// resulting drafts.
func (s *Service) DetectAndAdmit(ctx context.Context, userID, orgID uuid.UUID) ([]*domain.Message, error) {
	drafts, err := s.Detect(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	return s.Admit(ctx, userID, orgID, drafts)
}

// DetectAll runs detection and admission for every user whose mode is
// not off. One user's failure never aborts the sweep; it is logged and
// counted.
func (s *Service) DetectAll(ctx context.Context) (*DetectReport, error) {
	active, err := s.settings.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &DetectReport{Users: len(active)}
	for _, st := range active {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		drafts, err := s.Detect(ctx, st.UserID, st.OrganizationID)
		if err != nil {
			report.Errors++
			s.log.Error("detection pass failed",
				slog.String("user_id", st.UserID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Drafts += len(drafts)

		admitted, err := s.Admit(ctx, st.UserID, st.OrganizationID, drafts)
		if err != nil {
			report.Errors++
			s.log.Error("admission pass failed",
				slog.String("user_id", st.UserID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Admitted += len(admitted)
	}

	s.log.Info("detection sweep finished",
		slog.Int("users", report.Users),
		slog.Int("drafts", report.Drafts),
		slog.Int("admitted", report.Admitted),
		slog.Int("errors", report.Errors),
	)
	return report, nil
}
