package chatrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/workhive/workhive-server/internal/domain/chat"
	"github.com/workhive/workhive-server/internal/domain/query"
	"github.com/workhive/workhive-server/internal/infrastructure/database/dbschema"
	"github.com/workhive/workhive-server/internal/infrastructure/database/transaction"
	"github.com/workhive/workhive-server/internal/utils/functional"
	"github.com/workhive/workhive-server/internal/utils/platformerrors"
)

type MessageGormRepository struct {
	db *transaction.Database
}

var _ chat.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) chat.MessageRepository {
	return &MessageGormRepository{db}
}

// Create implements chat.MessageRepository.
func (repo *MessageGormRepository) Create(ctx context.Context, msg *chat.Message) error {
	model := dbschema.NewSchemaMessage(msg)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create message")
	}
	// Update the domain object with generated ID and server-assigned time
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// FindByPublicID implements chat.MessageRepository.
func (repo *MessageGormRepository) FindByPublicID(ctx context.Context, conversationID uint, publicID string) (*chat.Message, error) {
	var model dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ? AND public_id = ?", conversationID, publicID).
		First(&model).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find message by public ID")
	}
	return model.EtoD(), nil
}

// FindByConversationID implements chat.MessageRepository. Messages come back
// in send order, the serial id breaking timestamp ties.
func (repo *MessageGormRepository) FindByConversationID(ctx context.Context, conversationID uint, pagination *query.Pagination) ([]*chat.Message, error) {
	sql := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC")
	sql = applyPagination(sql, pagination)

	var rows []*dbschema.Message
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find messages")
	}

	return functional.Map(rows, func(item *dbschema.Message) *chat.Message {
		return item.EtoD()
	}), nil
}

// Count implements chat.MessageRepository.
func (repo *MessageGormRepository) Count(ctx context.Context, filter chat.MessageFilter) (int64, error) {
	sql := repo.db.GetTx(ctx).WithContext(ctx).Model(&dbschema.Message{})
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.ConversationID != nil {
		sql = sql.Where("conversation_id = ?", *filter.ConversationID)
	}
	var total int64
	if err := sql.Count(&total).Error; err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count messages")
	}
	return total, nil
}

// MarkDeleted implements chat.MessageRepository.
func (repo *MessageGormRepository) MarkDeleted(ctx context.Context, conversationID uint, id uint) error {
	result := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ? AND id = ?", conversationID, id).
		Updates(map[string]interface{}{
			"deleted": true,
			"text":    chat.Tombstone,
		})
	if result.Error != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to delete message")
	}
	if result.RowsAffected == 0 {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, gorm.ErrRecordNotFound, "message not found")
	}
	return nil
}
