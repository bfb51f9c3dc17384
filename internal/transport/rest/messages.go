package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/pkg/ctxutil"
)

// messageService defines the minimal interface needed by MessageHandler.
type messageService interface {
	ListMessages(ctx context.Context, userID uuid.UUID, surface domain.Surface) ([]*domain.Message, error)
	Accept(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	Dismiss(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	Snooze(ctx context.Context, userID, orgID, messageID uuid.UUID, option domain.SnoozeOption) (*domain.Message, error)
	RequestDetection(ctx context.Context, userID, orgID uuid.UUID) error
}

// MessageHandler serves the message queue REST endpoints.
type MessageHandler struct {
	svc messageService
	log *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(svc messageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, log: logger.With("handler", "messages")}
}

type messageResponse struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	ActionType   string            `json:"actionType"`
	Status       string            `json:"status"`
	Priority     int               `json:"priority"`
	ActionData   map[string]string `json:"actionData,omitempty"`
	Surface      string            `json:"surface"`
	CreatedAt    time.Time         `json:"createdAt"`
	ShownAt      *time.Time        `json:"shownAt,omitempty"`
	SnoozedUntil *time.Time        `json:"snoozedUntil,omitempty"`
	ExpiresAt    time.Time         `json:"expiresAt"`
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:           m.ID.String(),
		Type:         m.Type.String(),
		ActionType:   m.ActionType.String(),
		Status:       m.Status.String(),
		Priority:     m.Priority,
		ActionData:   m.ActionData,
		Surface:      m.Surface.String(),
		CreatedAt:    m.CreatedAt,
		ShownAt:      m.ShownAt,
		SnoozedUntil: m.SnoozedUntil,
		ExpiresAt:    m.ExpiresAt,
	}
}

// List handles GET /luna/messages?surface=HOME.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	surface := domain.Surface(r.URL.Query().Get("surface"))
	if surface == "" {
		surface = domain.SurfaceHome
	}

	msgs, err := h.svc.ListMessages(r.Context(), userID, surface)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// Accept handles POST /luna/messages/{id}/accept.
func (h *MessageHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Accept)
}

// Dismiss handles POST /luna/messages/{id}/dismiss.
func (h *MessageHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Dismiss)
}

func (h *MessageHandler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, uuid.UUID) (*domain.Message, error)) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, domain.NewValidationError("id", "malformed message id"))
		return
	}

	msg, err := op(r.Context(), userID, messageID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

type snoozeRequest struct {
	Option string `json:"option"`
}

// Snooze handles POST /luna/messages/{id}/snooze.
func (h *MessageHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, _ := ctxutil.OrgIDFromCtx(r.Context())

	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.log, domain.NewValidationError("id", "malformed message id"))
		return
	}

	var req snoozeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.log, domain.NewValidationError("body", "malformed json"))
			return
		}
	}

	msg, err := h.svc.Snooze(r.Context(), userID, orgID, messageID, domain.SnoozeOption(req.Option))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponse(msg))
}

// Refresh handles POST /luna/messages/refresh: asks for an on-demand
// detection pass, typically fired when a surface opens.
func (h *MessageHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, _ := ctxutil.OrgIDFromCtx(r.Context())

	if err := h.svc.RequestDetection(r.Context(), userID, orgID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
