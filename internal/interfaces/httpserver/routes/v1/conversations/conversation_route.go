package conversations

import (
	"github.com/gin-gonic/gin"

	"github.com/workhive/workhive-server/internal/interfaces/httpserver/handlers/chathandler"
)

type ConversationRoute struct {
	handler *chathandler.ChatHandler
}

func NewConversationRoute(handler *chathandler.ChatHandler) *ConversationRoute {
	return &ConversationRoute{handler: handler}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	conversations := router.Group("/conversations")
	conversations.GET("", route.handler.ListConversations)
	conversations.POST("", route.handler.StartConversation)
	conversations.GET("/stream", route.handler.StreamConversations)
	conversations.GET("/:conversation_id", route.handler.GetConversation)
	conversations.GET("/:conversation_id/messages", route.handler.ListMessages)
	conversations.POST("/:conversation_id/messages", route.handler.SendMessage)
	conversations.GET("/:conversation_id/messages/stream", route.handler.StreamMessages)
	conversations.DELETE("/:conversation_id/messages/:message_id", route.handler.DeleteMessage)
}
