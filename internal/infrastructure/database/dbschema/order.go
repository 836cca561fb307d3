package dbschema

import (
	"github.com/shopspring/decimal"

	"github.com/workhive/workhive-server/internal/domain/order"
	"github.com/workhive/workhive-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Order{})
}

// Order represents the database schema for orders
type Order struct {
	BaseModel
	PublicID      string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	BuyerID       string          `gorm:"type:varchar(64);index:idx_order_buyer;not null"`
	SellerID      string          `gorm:"type:varchar(64);index:idx_order_seller;not null"`
	GigID         string          `gorm:"type:varchar(64);index:idx_order_gig;not null"`
	GigPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status        order.Status    `gorm:"type:varchar(20);index:idx_order_status;not null;default:'pending'"`
	StatusMessage *string         `gorm:"type:text"`
}

// NewSchemaOrder creates a database schema from domain order
func NewSchemaOrder(o *order.Order) *Order {
	return &Order{
		BaseModel: BaseModel{
			ID:        o.ID,
			CreatedAt: o.CreatedAt,
			UpdatedAt: o.UpdatedAt,
		},
		PublicID:      o.PublicID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		GigID:         o.GigID,
		GigPrice:      o.GigPrice,
		Status:        o.Status,
		StatusMessage: o.StatusMessage,
	}
}

// EtoD converts database schema to domain order (Entity to Domain)
func (o *Order) EtoD() *order.Order {
	return &order.Order{
		ID:            o.ID,
		PublicID:      o.PublicID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		GigID:         o.GigID,
		GigPrice:      o.GigPrice,
		Status:        o.Status,
		StatusMessage: o.StatusMessage,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
