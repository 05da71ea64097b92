package chathandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsyncgo/internal/auth"
	"chatsyncgo/internal/http/middleware"
	"chatsyncgo/internal/services/chat"
	"chatsyncgo/internal/ws"
)

type stubChatSvc struct {
	insertResp *chat.MessageDTO
	insertErr  error
	listErr    error
}

func (s *stubChatSvc) IsMember(context.Context, int64, int64) (bool, error) { return true, nil }
func (s *stubChatSvc) CreateConversation(context.Context, int64, string) (*chat.ConversationDTO, bool, error) {
	return nil, false, nil
}
func (s *stubChatSvc) ListConversations(context.Context, int64) ([]chat.ConversationDTO, error) {
	return nil, nil
}
func (s *stubChatSvc) ListMessages(context.Context, int64, int64) ([]chat.MessageDTO, error) {
	return nil, s.listErr
}
func (s *stubChatSvc) InsertMessage(context.Context, int64, int64, string) (*chat.MessageDTO, error) {
	return s.insertResp, s.insertErr
}

func newTestRouter(t *testing.T, svc chat.IChatService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier := auth.NewVerifier("handler-test-secret", time.Hour)
	token, err := verifier.Issue(auth.Identity{ID: 1, Username: "alice"})
	require.NoError(t, err)

	// empty hub, no redis: delivery is a silent miss, which is fine here
	wsSrv := ws.NewWsServer(ws.NewHub(), nil, verifier, svc)

	engine := gin.New()
	New(svc, wsSrv.Bridge()).Register(engine, middleware.RequireAuth(verifier))
	return engine, token
}

func TestSendMessageRequiresAuth(t *testing.T) {
	engine, _ := newTestRouter(t, &stubChatSvc{})

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"conversation_id":42,"content":"hi"}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendMessageReturnsPersistedRow(t *testing.T) {
	svc := &stubChatSvc{insertResp: &chat.MessageDTO{
		ID: 7, ConversationID: 42, SenderID: 1, SenderUsername: "alice", Content: "hi",
	}}
	engine, token := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"conversation_id":42,"content":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var msg chat.MessageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, int64(7), msg.ID)
}

func TestSendMessageDeniedForNonParticipant(t *testing.T) {
	engine, token := newTestRouter(t, &stubChatSvc{insertErr: chat.ErrNotParticipant})

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"conversation_id":42,"content":"hi"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHistoryDeniedForNonParticipant(t *testing.T) {
	engine, token := newTestRouter(t, &stubChatSvc{listErr: chat.ErrNotParticipant})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/42/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
