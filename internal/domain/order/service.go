package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/utils/idgen"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

const orderIDPrefix = "ord"

// OrderService handles business logic for the order lifecycle
type OrderService struct {
	repo OrderRepository
}

// NewOrderService creates a new order service
func NewOrderService(repo OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// CreateOrderInput represents the input for creating an order
type CreateOrderInput struct {
	BuyerID  string
	SellerID string
	GigID    string
	GigPrice decimal.Decimal
}

// CreateOrder creates a pending order for a gig purchase.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid order", err, "6c2d0f1b-8e3a-4b4c-7d5e-0f1a2b3c4d5e")
	}

	publicID, err := idgen.GenerateSecureID(orderIDPrefix, 16)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to generate order id", err, "7d3e1a2c-9f4b-4c5d-8e6f-1a2b3c4d5e6f")
	}

	order := &Order{
		PublicID: publicID,
		BuyerID:  input.BuyerID,
		SellerID: input.SellerID,
		GigID:    input.GigID,
		GigPrice: input.GigPrice,
		Status:   StatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create order")
	}
	return order, nil
}

// GetOrder retrieves an order the requester participates in. Outsiders get
// not-found.
func (s *OrderService) GetOrder(ctx context.Context, requesterID, orderID string) (*Order, error) {
	order, err := s.repo.FindByPublicID(ctx, orderID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "order not found")
	}
	if _, ok := order.RoleOf(requesterID); !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "order not found", nil, "8e4f2b3d-0a5c-4d6e-9f7a-2b3c4d5e6f7a")
	}
	return order, nil
}

// ListOrders returns the requester's orders as buyer or seller, newest first,
// with the total count. An optional status narrows the result.
func (s *OrderService) ListOrders(ctx context.Context, userID string, status *Status, pagination *query.Pagination) ([]*Order, int64, error) {
	if status != nil && !ValidStatus(*status) {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unknown status %q", *status), nil, "9f5a3c4e-1b6d-4e7f-0a8b-3c4d5e6f7a8b")
	}

	filter := OrderFilter{Participant: &userID, Status: status}
	orders, err := s.repo.FindByFilter(ctx, filter, pagination)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list orders")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count orders")
	}
	return orders, total, nil
}

// Transition applies a lifecycle action to an order on behalf of requesterID.
// The write carries the observed status as a precondition, so two concurrent
// transitions cannot both win: the loser gets a conflict error.
func (s *OrderService) Transition(ctx context.Context, requesterID, orderID string, action Action, reason *string) (*Order, error) {
	if !ValidAction(action) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("unknown action %q", action), nil, "0a6b4d5f-2c7e-4f8a-1b9c-4d5e6f7a8b9c")
	}

	order, err := s.GetOrder(ctx, requesterID, orderID)
	if err != nil {
		return nil, err
	}
	role, _ := order.RoleOf(requesterID)

	next, ok := NextStatus(order.Status, role, action)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("%s cannot %s an order in status %s", role, action, order.Status), nil, "1b7c5e6a-3d8f-4a9b-2c0d-5e6f7a8b9c0d")
	}
	if ReasonRequired(action) && (reason == nil || strings.TrimSpace(*reason) == "") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("a reason is required to %s", action), nil, "2c8d6f7b-4e9a-4b0c-3d1e-6f7a8b9c0d1e")
	}

	var statusMessage *string
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if trimmed != "" {
			statusMessage = &trimmed
		}
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status, next, statusMessage); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to transition order")
	}

	order.Status = next
	order.StatusMessage = statusMessage
	return order, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if input.BuyerID == "" || input.SellerID == "" {
		return fmt.Errorf("buyer and seller ids are required")
	}
	if input.BuyerID == input.SellerID {
		return fmt.Errorf("buyer and seller must be different users")
	}
	if input.GigID == "" {
		return fmt.Errorf("gig id is required")
	}
	if input.GigPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("gig price must be positive")
	}
	return nil
}
