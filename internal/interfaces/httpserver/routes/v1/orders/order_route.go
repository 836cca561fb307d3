package orders

import (
	"github.com/gin-gonic/gin"

	"github.com/workhive/workhive-server/internal/interfaces/httpserver/handlers/orderhandler"
)

type OrderRoute struct {
	handler *orderhandler.OrderHandler
}

func NewOrderRoute(handler *orderhandler.OrderHandler) *OrderRoute {
	return &OrderRoute{handler: handler}
}

func (route *OrderRoute) RegisterRouter(router gin.IRouter) {
	orders := router.Group("/orders")
	orders.GET("", route.handler.ListOrders)
	orders.POST("", route.handler.CreateOrder)
	orders.GET("/:order_id", route.handler.GetOrder)
	orders.POST("/:order_id/transitions", route.handler.Transition)
}
