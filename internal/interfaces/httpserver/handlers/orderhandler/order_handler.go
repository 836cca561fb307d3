package orderhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/workhive/workhive-server/internal/domain/order"
	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/infrastructure/metrics"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/dto"
	"github.com/workhive/workhive-server/internal/interfaces/httpserver/middlewares"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	orderService *order.OrderService
	logger       zerolog.Logger
}

func NewOrderHandler(orderService *order.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

type createOrderRequest struct {
	SellerID string          `json:"seller_id" binding:"required"`
	GigID    string          `json:"gig_id" binding:"required"`
	GigPrice decimal.Decimal `json:"gig_price" binding:"required"`
}

type transitionRequest struct {
	Action order.Action `json:"action" binding:"required"`
	Reason *string      `json:"reason"`
}

type orderResponse struct {
	*order.Order
	ConversationID string `json:"conversation_id"`
}

func toResponse(o *order.Order) orderResponse {
	return orderResponse{Order: o, ConversationID: o.ConversationID()}
}

// CreateOrder places a pending order with the caller as buyer.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "8f4a2d3c-0b5e-4e6f-9a7b-2d3e4f5a6b7c"))
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid request body", err, "9a5b3e4d-1c6f-4f7a-0b8c-3e4f5a6b7c8d"))
		return
	}

	created, err := h.orderService.CreateOrder(c.Request.Context(), order.CreateOrderInput{
		BuyerID:  principal.ID,
		SellerID: req.SellerID,
		GigID:    req.GigID,
		GigPrice: req.GigPrice,
	})
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	dto.RespondData(c, http.StatusCreated, toResponse(created))
}

// GetOrder returns one of the caller's orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "0b6c4f5e-2d7a-4a8b-1c9d-4f5a6b7c8d9e"))
		return
	}

	found, err := h.orderService.GetOrder(c.Request.Context(), principal.ID, c.Param("order_id"))
	if err != nil {
		dto.RespondError(c, err)
		return
	}
	dto.RespondData(c, http.StatusOK, toResponse(found))
}

// ListOrders returns the caller's orders, optionally filtered by status.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "1c7d5a6f-3e8b-4b9c-2d0e-5a6b7c8d9e0f"))
		return
	}

	var params struct {
		Status *order.Status `form:"status"`
		Limit  *int          `form:"limit" binding:"omitempty,gt=0,lte=200"`
		After  *uint         `form:"after"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid query parameters", err, "2d8e6b7a-4f9c-4c0d-3e1f-6b7c8d9e0f1a"))
		return
	}

	var pagination *query.Pagination
	if params.Limit != nil || params.After != nil {
		pagination = &query.Pagination{Limit: params.Limit, After: params.After}
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), principal.ID, params.Status, pagination)
	if err != nil {
		dto.RespondError(c, err)
		return
	}

	items := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toResponse(o))
	}
	dto.RespondData(c, http.StatusOK, dto.ListData{Items: items, Total: total})
}

// Transition applies a lifecycle action to an order.
func (h *OrderHandler) Transition(c *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(c)
	if !ok {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "missing principal", nil, "3e9f7c8b-5a0d-4d1e-4f2a-7c8d9e0f1a2b"))
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.RespondError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerTransport, platformerrors.ErrorTypeValidation, "invalid request body", err, "4f0a8d9c-6b1e-4e2f-5a3b-8d9e0f1a2b3c"))
		return
	}

	updated, err := h.orderService.Transition(c.Request.Context(), principal.ID, c.Param("order_id"), req.Action, req.Reason)
	if err != nil {
		metrics.RecordOrderTransition(string(req.Action), "failed")
		dto.RespondError(c, err)
		return
	}

	metrics.RecordOrderTransition(string(req.Action), string(updated.Status))
	dto.RespondData(c, http.StatusOK, toResponse(updated))
}
