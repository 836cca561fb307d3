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

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ chat.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) chat.ConversationRepository {
	return &ConversationGormRepository{db}
}

// Create implements chat.ConversationRepository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create conversation")
	}
	// Update the domain object with generated ID and timestamps
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	return nil
}

// FindByPublicID implements chat.ConversationRepository.
func (repo *ConversationGormRepository) FindByPublicID(ctx context.Context, publicID string) (*chat.Conversation, error) {
	var model dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&model).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversation by public ID")
	}
	return model.EtoD(), nil
}

// FindByFilter implements chat.ConversationRepository.
func (repo *ConversationGormRepository) FindByFilter(ctx context.Context, filter chat.ConversationFilter, pagination *query.Pagination) ([]*chat.Conversation, error) {
	sql := repo.applyFilter(repo.db.GetTx(ctx).WithContext(ctx), filter).
		Order("last_updated_at DESC")
	sql = applyPagination(sql, pagination)

	var rows []*dbschema.Conversation
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversations")
	}

	return functional.Map(rows, func(item *dbschema.Conversation) *chat.Conversation {
		return item.EtoD()
	}), nil
}

// Count implements chat.ConversationRepository.
func (repo *ConversationGormRepository) Count(ctx context.Context, filter chat.ConversationFilter) (int64, error) {
	var total int64
	err := repo.applyFilter(repo.db.GetTx(ctx).WithContext(ctx).Model(&dbschema.Conversation{}), filter).
		Count(&total).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count conversations")
	}
	return total, nil
}

// UpdateParticipantInfo implements chat.ConversationRepository.
func (repo *ConversationGormRepository) UpdateParticipantInfo(ctx context.Context, id uint, info map[string]chat.ParticipantInfo) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Update("participant_info", dbschema.JSONParticipantInfo(info)).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update participant info")
	}
	return nil
}

// SetLastMessage implements chat.ConversationRepository.
func (repo *ConversationGormRepository) SetLastMessage(ctx context.Context, id uint, last chat.LastMessage) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message":    dbschema.JSONLastMessage(last),
			"last_updated_at": last.SentAt,
		}).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to set last message")
	}
	return nil
}

func (repo *ConversationGormRepository) applyFilter(sql *gorm.DB, filter chat.ConversationFilter) *gorm.DB {
	if filter.ID != nil {
		sql = sql.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		sql = sql.Where("public_id = ?", *filter.PublicID)
	}
	if filter.Participant != nil {
		sql = sql.Where("participant_low = ? OR participant_high = ?", *filter.Participant, *filter.Participant)
	}
	return sql
}

func applyPagination(sql *gorm.DB, pagination *query.Pagination) *gorm.DB {
	if pagination == nil {
		return sql
	}
	if pagination.After != nil {
		sql = sql.Where("id > ?", *pagination.After)
	}
	if pagination.Limit != nil {
		sql = sql.Limit(*pagination.Limit)
	}
	return sql
}
