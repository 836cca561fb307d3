package orderrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workhive/workhive-server/internal/domain/order"
	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/infrastructure/database/dbschema"
	"github.com/workhive/workhive-server/internal/infrastructure/database/transaction"
	"github.com/workhive/workhive-server/internal/utils/functional"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

type OrderGormRepository struct {
	db *transaction.Database
}

var _ order.OrderRepository = (*OrderGormRepository)(nil)

func NewOrderGormRepository(db *transaction.Database) order.OrderRepository {
	return &OrderGormRepository{db}
}

// Create implements order.OrderRepository.
func (repo *OrderGormRepository) Create(ctx context.Context, o *order.Order) error {
	model := dbschema.NewSchemaOrder(o)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create order")
	}
	// Update the domain object with generated ID and timestamps
	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByPublicID implements order.OrderRepository.
func (repo *OrderGormRepository) FindByPublicID(ctx context.Context, publicID string) (*order.Order, error) {
	var model dbschema.Order
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&model).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find order by public ID")
	}
	return model.EtoD(), nil
}

// FindByFilter implements order.OrderRepository.
func (repo *OrderGormRepository) FindByFilter(ctx context.Context, filter order.OrderFilter, pagination *query.Pagination) ([]*order.Order, error) {
	sql := repo.applyFilter(repo.db.GetTx(ctx).WithContext(ctx), filter).
		Order("created_at DESC, id DESC")
	if pagination != nil {
		if pagination.After != nil {
			sql = sql.Where("id < ?", *pagination.After)
		}
		if pagination.Limit != nil {
			sql = sql.Limit(*pagination.Limit)
		}
	}

	var rows []*dbschema.Order
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find orders")
	}

	return functional.Map(rows, func(item *dbschema.Order) *order.Order {
		return item.EtoD()
	}), nil
}

// Count implements order.OrderRepository.
func (repo *OrderGormRepository) Count(ctx context.Context, filter order.OrderFilter) (int64, error) {
	var total int64
	err := repo.applyFilter(repo.db.GetTx(ctx).WithContext(ctx).Model(&dbschema.Order{}), filter).
		Count(&total).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count orders")
	}
	return total, nil
}

// UpdateStatus implements order.OrderRepository. The expected status acts as
// an optimistic concurrency token: zero rows affected on an existing order
// means another transition won the race.
func (repo *OrderGormRepository) UpdateStatus(ctx context.Context, id uint, expected, next order.Status, statusMessage *string) error {
	result := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":         next,
			"status_message": statusMessage,
		})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to update order status")
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := repo.db.GetTx(ctx).WithContext(ctx).Model(&dbschema.Order{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update order status")
		}
		if exists == 0 {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "order not found")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "order status changed concurrently", nil, "3d9e7a8c-5f0b-4c1d-4e2f-7a8b9c0d1e2f")
	}
	return nil
}

func (repo *OrderGormRepository) applyFilter(sql *gorm.DB, filter order.OrderFilter) *gorm.DB {
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.Participant != nil {
		sql = sql.Where("buyer_id = ? OR seller_id = ?", *filter.Participant, *filter.Participant)
	}
	if filter.Status != nil {
		sql = sql.Where("status = ?", *filter.Status)
	}
	if filter.GigID != nil {
		sql = sql.Where("gig_id = ?", *filter.GigID)
	}
	return sql
}
