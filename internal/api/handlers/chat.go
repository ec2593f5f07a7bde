package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-relay/internal/models"
	"chat-relay/internal/realtime"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *services.ChatService
	hub         *realtime.Hub
}

func NewChatHandler(chatService *services.ChatService, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}

func chatIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid chat id",
		})
		return 0, false
	}
	return uint(id), true
}

func (h *ChatHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotMember):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Code:    http.StatusForbidden,
			Message: "Not a member of this chat",
		})
	case errors.Is(err, services.ErrChatNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "Chat not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    http.StatusNotFound,
			Message: "User not found",
		})
	case errors.Is(err, services.ErrSelfChat),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrNotGroupChat),
		errors.Is(err, services.ErrLastMember):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}

// CreatePrivateChat godoc
// @Summary Open a private chat
// @Description Open a private chat with another user, reusing the existing one if the pair already has a chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PrivateChatRequest true "Target user"
// @Success 200 {object} models.ChatResponse "Existing chat returned"
// @Success 201 {object} models.ChatResponse "Chat created"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats/private [post]
func (h *ChatHandler) CreatePrivateChat(c *gin.Context) {
	var req models.PrivateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	userID := currentUserID(c)
	chat, created, err := h.chatService.CreatePrivateChat(userID, req.TargetUserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		for _, p := range chat.Participants {
			h.hub.NotifyUser(p.ID, realtime.NewChatsChangedFrame())
		}
	}
	c.JSON(status, chat)
}

// CreateGroupChat godoc
// @Summary Create a group chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GroupChatRequest true "Group title and members"
// @Success 201 {object} models.ChatResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats/group [post]
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	var req models.GroupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	chat, err := h.chatService.CreateGroupChat(currentUserID(c), &req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	for _, p := range chat.Participants {
		h.hub.NotifyUser(p.ID, realtime.NewChatsChangedFrame())
	}
	c.JSON(http.StatusCreated, chat)
}

// ListChats godoc
// @Summary List the caller's chats
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChatResponse
// @Router /chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chatService.ListChats(currentUserID(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// GetChat godoc
// @Summary Get one chat with its participants
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} models.ChatResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /chats/{id} [get]
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	chat, err := h.chatService.GetChat(chatID, currentUserID(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// ListMessages godoc
// @Summary List a chat's message history
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {array} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{id}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(chatID, currentUserID(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Send a message over HTTP
// @Description Persist a message and fan it out to subscribed connections, same as a send_message socket frame
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body models.SendMessageRequest true "Message payload"
// @Success 201 {array} models.MessageResponse "Stored rows, one per recipient for encrypted group sends"
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	senderID := currentUserID(c)
	responses, wire, err := h.chatService.SendMessage(c.Request.Context(), chatID, senderID, &req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.hub.DistributeStored(chatID, senderID, wire)
	c.JSON(http.StatusCreated, responses)
}

// MarkRead godoc
// @Summary Advance the caller's read pointer
// @Description Updates read state and pushes an unread_update frame to the caller's other connections
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body models.MarkReadRequest true "Last read message id"
// @Success 200 {object} models.UserChatState
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{id}/read [post]
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req models.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	userID := currentUserID(c)
	state, err := h.chatService.MarkRead(userID, chatID, req.LastReadMessageID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	// Other devices of the same user clear their badge.
	h.hub.NotifyUser(userID, realtime.NewUnreadUpdateFrame(chatID))
	c.JSON(http.StatusOK, state)
}

// RemoveMembers godoc
// @Summary Remove members from a group chat
// @Description Removed users get a removed_from_chat frame and their live connections are force-unsubscribed from the room
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body models.UpdateMembersRequest true "Member ids to remove"
// @Success 200 {object} map[string][]uint "Removed member ids"
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{id}/members [delete]
func (h *ChatHandler) RemoveMembers(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	removed, err := h.chatService.RemoveMembers(chatID, currentUserID(c), req.MemberIDs)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	for _, userID := range removed {
		h.hub.NotifyUser(userID, realtime.NewRemovedFromChatFrame(chatID))
		h.hub.RemoveUserFromRoom(chatID, userID)
		h.hub.NotifyUser(userID, realtime.NewChatsChangedFrame())
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
