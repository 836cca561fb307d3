package chathandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/infrastructure/metrics"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/dto"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/middlewares"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

// ChatHandler exposes the messaging facade over HTTP.
type ChatHandler struct {
	chatService *chat.ChatService
	logger      zerolog.Logger
}

func NewChatHandler(chatService *chat.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

type startConversationRequest struct {
	PeerID           string `json:"peer_id" binding:"required"`
	PeerDisplayName  string `json:"peer_display_name"`
	PeerProfileImage string `json:"peer_profile_image"`
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// StartConversation creates or returns the conversation between the caller
// and the peer, refreshing cached display metadata on the way.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "5e1f9c0b-7a2d-4d3e-6f4a-9c0d1e2f3a4b"))
		return
	}

	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid request body", err, "6f2a0d1c-8b3e-4e4f-7a5b-0d1e2f3a4b5c"))
		return
	}

	conv, created, err := h.chatService.StartOrGetConversation(
		c.Request.Context(),
		principal.ID,
		req.PeerID,
		chat.ParticipantInfo{DisplayName: principal.DisplayName, ProfileImage: principal.ProfileImage},
		chat.ParticipantInfo{DisplayName: req.PeerDisplayName, ProfileImage: req.PeerProfileImage},
	)
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	if created {
		metrics.ConversationsCreatedTotal.Inc()
	}
	dto.RespondData(c, http.StatusOK, conv)
}

// ListConversations returns the caller's conversations, most recent activity
// first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "7a3b1e2d-9c4f-4f5a-8b6c-1e2f3a4b5c6d"))
		return
	}

	pagination, err := paginationFromQuery(c)
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	conversations, total, err := h.chatService.ListConversations(c.Request.Context(), principal.ID, pagination)
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	dto.RespondData(c, http.StatusOK, dto.ListData{Items: conversations, Total: total})
}

// GetConversation returns one conversation the caller participates in.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "8b4c2f3e-0d5a-4a6b-9c7d-2f3a4b5c6d7e"))
		return
	}

	conv, err := h.chatService.GetConversation(c.Request.Context(), principal.ID, c.Param("conversation_id"))
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	dto.RespondData(c, http.StatusOK, conv)
}

// SendMessage appends a message to the conversation.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "9c5d3a4f-1e6b-4b7c-0d8e-3a4b5c6d7e8f"))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid request body", err, "0d6e4b5a-2f7c-4c8d-1e9f-4b5c6d7e8f9a"))
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), principal.ID, c.Param("conversation_id"), req.Text)
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	metrics.MessagesSentTotal.Inc()
	dto.RespondData(c, http.StatusCreated, msg)
}

// ListMessages returns the conversation's messages oldest first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "1e7f5c6b-3a8d-4d9e-2f0a-5c6d7e8f9a0b"))
		return
	}

	pagination, err := paginationFromQuery(c)
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	messages, total, err := h.chatService.ListMessages(c.Request.Context(), principal.ID, c.Param("conversation_id"), pagination)
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	dto.RespondData(c, http.StatusOK, dto.ListData{Items: messages, Total: total})
}

// DeleteMessage soft deletes one of the caller's messages.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "2f8a6d7c-4b9e-4e0f-3a1b-6d7e8f9a0b1c"))
		return
	}

	err := h.chatService.DeleteMessage(c.Request.Context(), principal.ID, c.Param("conversation_id"), c.Param("message_id"))
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	metrics.MessagesDeletedTotal.Inc()
	dto.RespondData(c, http.StatusOK, gin.H{"deleted": true})
}

func paginationFromQuery(c *gin.Context) (*query.Pagination, error) {
	var params struct {
		Limit *int  `form:"limit" binding:"omitempty,gt=0,lte=200"`
		After *uint `form:"after"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid pagination parameters", err, "3a9b7e8d-5c0f-4f1a-4b2c-7e8f9a0b1c2d")
	}
	if params.Limit == nil && params.After == nil {
		return nil, nil
	}
	return &query.Pagination{Limit: params.Limit, After: params.After}, nil
}
