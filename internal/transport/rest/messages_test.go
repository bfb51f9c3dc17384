package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunahq/luna-backend/internal/domain"
	"github.com/lunahq/luna-backend/pkg/ctxutil"
)

type messageServiceMock struct {
	ListMessagesFunc     func(ctx context.Context, userID uuid.UUID, surface domain.Surface) ([]*domain.Message, error)
	AcceptFunc           func(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	DismissFunc          func(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error)
	SnoozeFunc           func(ctx context.Context, userID, orgID, messageID uuid.UUID, option domain.SnoozeOption) (*domain.Message, error)
	RequestDetectionFunc func(ctx context.Context, userID, orgID uuid.UUID) error
}

func (m *messageServiceMock) ListMessages(ctx context.Context, userID uuid.UUID, surface domain.Surface) ([]*domain.Message, error) {
	return m.ListMessagesFunc(ctx, userID, surface)
}

func (m *messageServiceMock) Accept(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return m.AcceptFunc(ctx, userID, messageID)
}

func (m *messageServiceMock) Dismiss(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	return m.DismissFunc(ctx, userID, messageID)
}

func (m *messageServiceMock) Snooze(ctx context.Context, userID, orgID, messageID uuid.UUID, option domain.SnoozeOption) (*domain.Message, error) {
	return m.SnoozeFunc(ctx, userID, orgID, messageID, option)
}

func (m *messageServiceMock) RequestDetection(ctx context.Context, userID, orgID uuid.UUID) error {
	return m.RequestDetectionFunc(ctx, userID, orgID)
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := ctxutil.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

func TestListMessages_ReturnsQueue(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	msgID := uuid.New()
	svc := &messageServiceMock{
		ListMessagesFunc: func(ctx context.Context, uid uuid.UUID, surface domain.Surface) ([]*domain.Message, error) {
			if surface != domain.SurfaceChat {
				t.Errorf("surface: got %s, want %s", surface, domain.SurfaceChat)
			}
			return []*domain.Message{{
				ID:        msgID,
				UserID:    uid,
				Type:      domain.MessageTypeStartResearch,
				Status:    domain.MessageStatusShown,
				Priority:  80,
				Surface:   domain.SurfaceChat,
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}}, nil
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	h.List(rec, authedRequest(http.MethodGet, "/luna/messages?surface=CHAT", "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp struct {
		Messages []messageResponse `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != msgID.String() {
		t.Errorf("messages: got %+v, want one with id %s", resp.Messages, msgID)
	}
}

func TestListMessages_DefaultsToHomeSurface(t *testing.T) {
	t.Parallel()

	var gotSurface domain.Surface
	svc := &messageServiceMock{
		ListMessagesFunc: func(ctx context.Context, uid uuid.UUID, surface domain.Surface) ([]*domain.Message, error) {
			gotSurface = surface
			return nil, nil
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	h.List(rec, authedRequest(http.MethodGet, "/luna/messages", "", uuid.New()))

	if gotSurface != domain.SurfaceHome {
		t.Errorf("surface: got %s, want %s", gotSurface, domain.SurfaceHome)
	}
}

func TestAccept_ConflictMapsTo409(t *testing.T) {
	t.Parallel()

	svc := &messageServiceMock{
		AcceptFunc: func(ctx context.Context, uid, mid uuid.UUID) (*domain.Message, error) {
			return nil, domain.ErrConflict
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	req := authedRequest(http.MethodPost, "/luna/messages/"+uuid.NewString()+"/accept", "", uuid.New())
	req.SetPathValue("id", uuid.NewString())
	h.Accept(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestAccept_MalformedIDMapsTo400(t *testing.T) {
	t.Parallel()

	h := NewMessageHandler(&messageServiceMock{}, slog.Default())
	rec := httptest.NewRecorder()

	req := authedRequest(http.MethodPost, "/luna/messages/nope/accept", "", uuid.New())
	req.SetPathValue("id", "nope")
	h.Accept(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestSnooze_PassesOption(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	msgID := uuid.New()
	svc := &messageServiceMock{
		SnoozeFunc: func(ctx context.Context, uid, oid, mid uuid.UUID, option domain.SnoozeOption) (*domain.Message, error) {
			if option != domain.Snooze4Hours {
				t.Errorf("option: got %s, want %s", option, domain.Snooze4Hours)
			}
			return &domain.Message{ID: mid, Status: domain.MessageStatusSnoozed}, nil
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	req := authedRequest(http.MethodPost, "/luna/messages/"+msgID.String()+"/snooze", `{"option":"4H"}`, userID)
	req.SetPathValue("id", msgID.String())
	h.Snooze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestRefresh_Returns202(t *testing.T) {
	t.Parallel()

	svc := &messageServiceMock{
		RequestDetectionFunc: func(ctx context.Context, uid, oid uuid.UUID) error {
			return nil
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	h.Refresh(rec, authedRequest(http.MethodPost, "/luna/messages/refresh", "", uuid.New()))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}
}

func TestList_NotFoundMapsTo404(t *testing.T) {
	t.Parallel()

	svc := &messageServiceMock{
		ListMessagesFunc: func(ctx context.Context, uid uuid.UUID, surface domain.Surface) ([]*domain.Message, error) {
			return nil, domain.ErrNotFound
		},
	}

	h := NewMessageHandler(svc, slog.Default())
	rec := httptest.NewRecorder()

	h.List(rec, authedRequest(http.MethodGet, "/luna/messages", "", uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}
