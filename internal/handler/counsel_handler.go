package handler

import (
	"context"
	"net/http"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CounselService interface {
	StartConversation(ctx context.Context, actor user.Actor, retention conversation.RetentionMode) (conversation.Conversation, error)
	ListConversations(ctx context.Context, actor user.Actor) ([]conversation.Conversation, error)
	OpenChatRoom(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (services.ChatRoom, error)
	History(ctx context.Context, conversationID uuid.UUID, actor user.Actor, page, limit int) ([]message.Message, int64, error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, actor user.Actor, content string) (*message.Message, error)
	EditMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor, content string) (message.Message, error)
	DeleteMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor) error
	CloseConversation(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (conversation.Conversation, error)
	RemoveForUser(ctx context.Context, conversationID uuid.UUID, actor user.Actor) error
	OnlineStatus(ctx context.Context) (services.OnlineStatus, error)
	Badge(ctx context.Context, actor user.Actor) (services.Badge, error)
}

type CounselHandler struct {
	service CounselService
}

func NewCounselHandler(service CounselService) *CounselHandler {
	return &CounselHandler{service: service}
}

// Start returns the caller's active conversation, creating it if needed.
func (h *CounselHandler) Start(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req httpdto.StartConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
	}

	conv, err := h.service.StartConversation(c.Request.Context(), actor, conversation.RetentionMode(req.RetentionMode))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

func (h *CounselHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	items, err := h.service.ListConversations(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversations(items)))
}

// Get opens the chat room: staff may claim it and unread messages are marked.
func (h *CounselHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}

	room, err := h.service.OpenChatRoom(c.Request.Context(), conversationID, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ChatRoomDTO{
		Conversation: httpdto.FromConversation(room.Conversation),
		Messages:     httpdto.FromMessages(room.Messages),
		Total:        room.Total,
	}))
}

func (h *CounselHandler) Messages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	page, limit, ok := pagination(c)
	if !ok {
		return
	}

	items, total, err := h.service.History(c.Request.Context(), conversationID, actor, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.Page[httpdto.MessageDTO]{
		Items: httpdto.FromMessages(items),
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

func (h *CounselHandler) Send(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), conversationID, actor, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	if msg == nil {
		badRequest(c, "message is empty")
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.FromMessage(*msg)))
}

func (h *CounselHandler) Edit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	messageID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	msg, err := h.service.EditMessage(c.Request.Context(), messageID, actor, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromMessage(msg)))
}

func (h *CounselHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	messageID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	if err := h.service.DeleteMessage(c.Request.Context(), messageID, actor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *CounselHandler) Close(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	conv, err := h.service.CloseConversation(c.Request.Context(), conversationID, actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

// Remove hides the conversation from its owner.
func (h *CounselHandler) Remove(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		writeError(c, errNotFound)
		return
	}
	if err := h.service.RemoveForUser(c.Request.Context(), conversationID, actor); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *CounselHandler) Status(c *gin.Context) {
	status, err := h.service.OnlineStatus(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(status))
}

func (h *CounselHandler) Badge(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	badge, err := h.service.Badge(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(badge))
}
