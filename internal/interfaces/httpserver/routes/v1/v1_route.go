package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/workhive/workhive-server/internal/config"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/routes/v1/conversations"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/routes/v1/orders"
)

type V1Route struct {
	conversations *conversations.ConversationRoute
	orders        *orders.OrderRoute
}

func NewV1Route(
	conversations *conversations.ConversationRoute,
	orders *orders.OrderRoute,
) *V1Route {
	return &V1Route{
		conversations,
		orders,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)

	v1Route.conversations.RegisterRouter(v1Router)
	v1Route.orders.RegisterRouter(v1Router)
}

// GetVersion returns the current build version of the API server.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": config.Version,
	})
}
