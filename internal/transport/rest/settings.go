package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/internal/service/luna"
	"github.com/lunahq/luna-backend/pkg/ctxutil"
)

// settingsService defines the minimal interface needed by SettingsHandler.
type settingsService interface {
	GetSettings(ctx context.Context, userID, orgID uuid.UUID) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, userID, orgID uuid.UUID, in luna.UpdateSettingsInput) (*domain.Settings, error)
}

// SettingsHandler serves the engine settings REST endpoints.
type SettingsHandler struct {
	svc settingsService
	log *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: logger.With("handler", "settings")}
}

type settingsResponse struct {
	Mode          string    `json:"mode"`
	DisabledTypes []string  `json:"disabledTypes"`
	SnoozeDefault string    `json:"snoozeDefault"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toSettingsResponse(s *domain.Settings) settingsResponse {
	disabled := make([]string, 0, len(s.DisabledTypes))
	for _, t := range s.DisabledTypes {
		disabled = append(disabled, t.String())
	}
	return settingsResponse{
		Mode:          s.Mode.String(),
		DisabledTypes: disabled,
		SnoozeDefault: s.SnoozeDefault.String(),
		UpdatedAt:     s.UpdatedAt,
	}
}

// Get handles GET /luna/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, _ := ctxutil.OrgIDFromCtx(r.Context())

	settings, err := h.svc.GetSettings(r.Context(), userID, orgID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

type updateSettingsRequest struct {
	Mode          string   `json:"mode"`
	DisabledTypes []string `json:"disabledTypes"`
	SnoozeDefault string   `json:"snoozeDefault"`
}

// Update handles PUT /luna/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	orgID, _ := ctxutil.OrgIDFromCtx(r.Context())

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, domain.NewValidationError("body", "malformed json"))
		return
	}

	in := luna.UpdateSettingsInput{
		Mode:          domain.LunaMode(req.Mode),
		SnoozeDefault: domain.SnoozeOption(req.SnoozeDefault),
	}
	for _, t := range req.DisabledTypes {
		in.DisabledTypes = append(in.DisabledTypes, domain.MessageType(t))
	}

	settings, err := h.svc.UpdateSettings(r.Context(), userID, orgID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}
