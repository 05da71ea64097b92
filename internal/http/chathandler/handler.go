package chathandler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatsyncgo/internal/http/middleware"
	"chatsyncgo/internal/services/chat"
	"chatsyncgo/internal/ws"
)

type Handler struct {
	svc    chat.IChatService
	bridge *ws.Bridge
}

func New(svc chat.IChatService, bridge *ws.Bridge) *Handler {
	return &Handler{svc: svc, bridge: bridge}
}

func (h *Handler) Register(r gin.IRoutes, requireAuth gin.HandlerFunc) {
	r.GET("/api/conversations", requireAuth, h.list)
	r.POST("/api/conversations", requireAuth, h.create)
	r.GET("/api/conversations/:id/messages", requireAuth, h.messages)
	r.POST("/api/messages", requireAuth, h.send)
}

// @Summary		List conversations
// @Description	Returns the caller's conversations with a last-message preview, newest first.
// @Tags			Conversations
// @Success		200	{array}		chat.ConversationDTO
// @Failure		401	{object}	ErrorResponse
// @Router			/api/conversations [get]
func (h *Handler) list(ginCtx *gin.Context) {
	caller := middleware.CallerIdentity(ginCtx)

	out, err := h.svc.ListConversations(ginCtx.Request.Context(), caller.ID)
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Start a conversation
// @Description	Finds or creates the 1:1 conversation with the named user.
// @Tags			Conversations
// @Param			body	body		CreateConversationBody	true	"Peer username"
// @Success		200		{object}	chat.ConversationDTO
// @Success		201		{object}	chat.ConversationDTO
// @Failure		404		{object}	ErrorResponse
// @Router			/api/conversations [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateConversationBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	caller := middleware.CallerIdentity(ginCtx)

	dto, created, err := h.svc.CreateConversation(ginCtx.Request.Context(), caller.ID, body.Username)
	switch {
	case errors.Is(err, chat.ErrUserNotFound):
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, chat.ErrSelfConversation):
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ginCtx.JSON(status, dto)
}

// @Summary		Conversation history
// @Description	Returns all messages of a conversation the caller belongs to, oldest first.
// @Tags			Conversations
// @Param			id	path		int	true	"Conversation ID"
// @Success		200	{array}		chat.MessageDTO
// @Failure		403	{object}	ErrorResponse
// @Router			/api/conversations/{id}/messages [get]
func (h *Handler) messages(ginCtx *gin.Context) {
	conversationID, err := strconv.ParseInt(ginCtx.Param("id"), 10, 64)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: "invalid conversation id"})
		return
	}
	caller := middleware.CallerIdentity(ginCtx)

	out, err := h.svc.ListMessages(ginCtx.Request.Context(), conversationID, caller.ID)
	if errors.Is(err, chat.ErrNotParticipant) {
		ginCtx.JSON(http.StatusForbidden, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}
	ginCtx.JSON(http.StatusOK, out)
}

// @Summary		Send a message
// @Description	Durably stores the message, then fans it out to the conversation's live room members.
// @Tags			Messages
// @Param			body	body		SendMessageBody	true	"Message payload"
// @Success		201		{object}	chat.MessageDTO
// @Failure		403		{object}	ErrorResponse
// @Router			/api/messages [post]
func (h *Handler) send(ginCtx *gin.Context) {
	var body SendMessageBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}
	caller := middleware.CallerIdentity(ginCtx)

	msg, err := h.svc.InsertMessage(ginCtx.Request.Context(),
		body.ConversationID, caller.ID, body.Content)
	if errors.Is(err, chat.ErrNotParticipant) {
		ginCtx.JSON(http.StatusForbidden, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "server error"})
		return
	}

	// Realtime fan-out happens strictly after the committed insert and
	// never affects the persisted result.
	h.bridge.Deliver(ginCtx.Request.Context(), msg)

	ginCtx.JSON(http.StatusCreated, msg)
}
