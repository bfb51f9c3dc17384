package luna

import (
	"context"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
)

// ListMessages returns the user's shown and pending messages for one
// surface in priority order. Terminal messages never appear.
func (s *Service) ListMessages(ctx context.Context, userID uuid.UUID, surface domain.Surface) ([]*domain.Message, error) {
	if !surface.IsValid() {
		return nil, domain.NewValidationError("surface", "unknown surface")
	}
	return s.messages.ListForSurface(ctx, userID, surface,
		[]domain.MessageStatus{domain.MessageStatusShown, domain.MessageStatusPending})
}

// GetMessage returns one of the user's messages in any state.
func (s *Service) GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return s.messages.GetByID(ctx, userID, messageID)
}
