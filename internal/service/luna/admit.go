package luna

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
)

// Admit ranks draft messages against the user's outstanding set and
// promotes the winners into visible slots, all inside one transaction
// holding the per-user advisory lock. Returns the messages promoted to
// shown by this pass.
//
// Drafts for disabled types, sequential types with an outstanding
// message, or types whose dependency is unmet are discarded; detection
// re-produces them on the next pass. Surviving drafts are persisted as
// pending even when every visible slot is taken, so the queue outlives
// the pass. In shadow mode messages are persisted but never promoted.
func (s *Service) Admit(ctx context.Context, userID, orgID uuid.UUID, drafts []domain.DraftMessage) ([]*domain.Message, error) {
	settings, err := s.settings.GetOrDefault(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if settings.Mode == domain.LunaModeOff {
		return nil, nil
	}

	now := s.now()
	var promoted []*domain.Message

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.tx.LockUser(txCtx, userID); err != nil {
			return err
		}

		if _, err := s.messages.WakeDueSnoozed(txCtx, userID, now); err != nil {
			return err
		}

		existing, err := s.messages.ListNonTerminal(txCtx, userID)
		if err != nil {
			return err
		}
		outstanding := make(map[domain.MessageType]bool, len(existing))
		for _, m := range existing {
			outstanding[m.Type] = true
		}

		candidates := make([]*domain.Message, 0, len(existing)+len(drafts))
		for _, m := range existing {
			if m.Status == domain.MessageStatusPending {
				candidates = append(candidates, m)
			}
		}

		for _, d := range drafts {
			if !settings.TypeEnabled(d.Type) {
				continue
			}
			if s.policy.IsSequential(d.Type) && outstanding[d.Type] {
				continue
			}
			if ok, err := s.dependencyMet(txCtx, userID, d.Type, d.ActionData); err != nil {
				return err
			} else if !ok {
				continue
			}

			m := s.buildMessage(userID, orgID, d, now)
			created, err := s.messages.Create(txCtx, m)
			if err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					continue
				}
				return err
			}
			outstanding[created.Type] = true
			candidates = append(candidates, created)
		}

		if settings.Mode == domain.LunaModeShadow {
			return nil
		}

		sortCandidates(candidates)

		visible, err := s.messages.CountVisible(txCtx, userID)
		if err != nil {
			return err
		}

		for _, m := range candidates {
			if visible >= s.policy.MaxConcurrent {
				break
			}
			if m.IsExpired(now) {
				continue
			}
			if m.DependsOn != nil {
				if ok, err := s.dependencyMet(txCtx, userID, m.Type, m.ActionData); err != nil {
					return err
				} else if !ok {
					continue
				}
			}
			if err := s.messages.MarkShown(txCtx, userID, m.ID, now); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					continue
				}
				return err
			}
			m.Status = domain.MessageStatusShown
			shownAt := now
			m.ShownAt = &shownAt
			promoted = append(promoted, m)
			visible++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// buildMessage fills a draft in from the policy.
func (s *Service) buildMessage(userID, orgID uuid.UUID, d domain.DraftMessage, now time.Time) *domain.Message {
	m := &domain.Message{
		ID:             uuid.New(),
		UserID:         userID,
		OrganizationID: orgID,
		Type:           d.Type,
		ActionType:     domain.ActionTypeFor(d.Type),
		Status:         domain.MessageStatusPending,
		Priority:       s.policy.Priority(d.Type),
		ActionData:     d.ActionData,
		Surface:        s.policy.Surface(d.Type),
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.policy.TTL(d.Type)),
	}
	if dep, ok := s.policy.Dependency(d.Type); ok {
		m.DependsOn = &dep
	}
	return m
}

// dependencyMet reports whether t's policy dependency (if any) has been
// satisfied for the user, either by a completed message of the
// prerequisite type or by the prerequisite's artifact already existing.
// Messages without a prospect have nothing to wait for.
func (s *Service) dependencyMet(ctx context.Context, userID uuid.UUID, t domain.MessageType, data domain.ActionData) (bool, error) {
	if _, ok := s.policy.Dependency(t); !ok {
		return true, nil
	}
	prospectID, ok := data[domain.ActionDataProspectID]
	if !ok || prospectID == "" {
		return true, nil
	}

	pid, err := uuid.Parse(prospectID)
	if err != nil {
		// Malformed prospect id can never be matched to research.
		return false, nil
	}
	if _, err := s.research.GetResearchByProspect(ctx, pid); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	dep, _ := s.policy.Dependency(t)
	return s.messages.HasCompleted(ctx, userID, dep)
}

// sortCandidates orders by priority descending, then age, then id for a
// stable total order.
func sortCandidates(candidates []*domain.Message) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
