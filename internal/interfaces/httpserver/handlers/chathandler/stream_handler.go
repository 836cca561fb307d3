package chathandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/infrastructure/metrics"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/dto"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/middlewares"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

type conversationListEvent struct {
	Conversations []*chat.Conversation `json:"conversations"`
	Error         string               `json:"error,omitempty"`
}

type messageListEvent struct {
	Messages []*chat.Message `json:"messages"`
	Error    string          `json:"error,omitempty"`
}

// StreamConversations pushes the caller's conversation list over SSE: the
// current state immediately, then again on every change. The subscription is
// disposed when the client disconnects.
func (h *ChatHandler) StreamConversations(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "4b0c8f9e-6d1a-4a2b-5c3d-8f9a0b1c2d3e"))
		return
	}

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeInternal, "streaming unsupported", nil, "5c1d9a0f-7e2b-4b3c-6d4e-9a0b1c2d3e4f"))
		return
	}

	ctx := c.Request.Context()
	events := make(chan conversationListEvent, 8)
	cancel, err := h.chatService.SubscribeConversations(ctx, principal.ID, func(conversations []*chat.Conversation, err error) {
		event := conversationListEvent{Conversations: conversations}
		if err != nil {
			event.Error = "could not load conversations"
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	defer cancel()

	metrics.IncrementActiveStreams("conversations")
	defer metrics.DecrementActiveStreams("conversations")

	c.Status(http.StatusOK)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			c.SSEvent("conversations", event)
			flusher.Flush()
		}
	}
}

// StreamMessages pushes a conversation's message list over SSE with the same
// contract as StreamConversations.
func (h *ChatHandler) StreamMessages(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "6d2e0b1a-8f3c-4c4d-7e5f-0b1c2d3e4f5a"))
		return
	}

	conversationID := c.Param("conversation_id")

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeInternal, "streaming unsupported", nil, "7e3f1c2b-9a4d-4d5e-8f6a-1c2d3e4f5a6b"))
		return
	}

	ctx := c.Request.Context()
	events := make(chan messageListEvent, 8)
	cancel, err := h.chatService.SubscribeMessages(ctx, principal.ID, conversationID, func(messages []*chat.Message, err error) {
		event := messageListEvent{Messages: messages}
		if err != nil {
			event.Error = "could not load messages"
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	defer cancel()

	metrics.IncrementActiveStreams("messages")
	defer metrics.DecrementActiveStreams("messages")

	c.Status(http.StatusOK)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			c.SSEvent("messages", event)
			flusher.Flush()
		}
	}
}
