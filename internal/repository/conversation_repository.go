package repository

import (
	"context"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	return mapError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return conversation.Conversation{}, mapError(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, conversation.StatusActive).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return conversation.Conversation{}, mapError(err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) ClaimCounsellor(ctx context.Context, id, staffID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ? AND counsellor_id IS NULL", id).
		Update("counsellor_id", staffID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresConversationRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to conversation.Status) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	var conversations []conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, conversation.StatusRemovedByUser).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *PostgresConversationRepository) ListActive(ctx context.Context) ([]conversation.Conversation, error) {
	var conversations []conversation.Conversation
	err := r.db.WithContext(ctx).
		Where("status = ?", conversation.StatusActive).
		Order("updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *PostgresConversationRepository) ListAssignedTo(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("counsellor_id = ?", staffID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *PostgresConversationRepository) CountUnassignedActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("status = ? AND counsellor_id IS NULL", conversation.StatusActive).
		Count(&count).Error
	return count, err
}

// PurgeExpired hard-deletes 24h-retention conversations created before cutoff,
// together with their messages.
func (r *PostgresConversationRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&conversation.Conversation{}).
			Select("id").
			Where("retention_mode = ? AND created_at < ?", conversation.Retention24h, cutoff)

		if err := tx.Where("conversation_id IN (?)", expired).Delete(&message.Message{}).Error; err != nil {
			return err
		}

		res := tx.Where("retention_mode = ? AND created_at < ?", conversation.Retention24h, cutoff).
			Delete(&conversation.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}
