// Package order implements the purchase lifecycle between a buyer and a
// seller: a finite state machine from pending through delivery to completion,
// with a revision cycle and terminal cancellation.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/domain/query"
)

// Role identifies which side of the order an actor is on.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Order is a purchase of a gig. StatusMessage carries the free-text note of
// the most recent transition (a cancellation or revision reason).
type Order struct {
	ID            uint            `json:"-"`
	PublicID      string          `json:"id"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id"`
	GigID         string          `json:"gig_id"`
	GigPrice      decimal.Decimal `json:"gig_price"`
	Status        Status          `json:"status"`
	StatusMessage *string         `json:"status_message,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RoleOf returns the role userID plays on this order, or false when the user
// is neither buyer nor seller.
func (o *Order) RoleOf(userID string) (Role, bool) {
	switch userID {
	case o.BuyerID:
		return RoleBuyer, true
	case o.SellerID:
		return RoleSeller, true
	default:
		return "", false
	}
}

// ConversationID derives the id of the buyer/seller conversation. The
// relation is recomputed on demand, never stored, so it cannot drift.
func (o *Order) ConversationID() string {
	return chat.DeriveConversationID(o.BuyerID, o.SellerID)
}

// OrderFilter narrows order queries.
type OrderFilter struct {
	ID          *uint
	PublicID    *string
	Participant *string
	Status      *Status
	GigID       *string
}

// OrderRepository is the persistence contract for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByPublicID(ctx context.Context, publicID string) (*Order, error)
	FindByFilter(ctx context.Context, filter OrderFilter, pagination *query.Pagination) ([]*Order, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
	// UpdateStatus moves the order from expected to next, stamping UpdatedAt
	// and replacing StatusMessage. Returns a conflict error when the stored
	// status no longer matches expected.
	UpdateStatus(ctx context.Context, id uint, expected, next Status, statusMessage *string) error
}
