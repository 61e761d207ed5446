package repository

import (
	"context"
	"time"

	"truthgate-api/internal/domain/message"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	return mapError(r.db.WithContext(ctx).Create(m).Error)
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return message.Message{}, mapError(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ? AND state = ?", id, message.StateVisible).
		Updates(map[string]interface{}{
			"content":   content,
			"edited_at": editedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Remove hides the message from history. The row and its content stay.
func (r *PostgresMessageRepository) Remove(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("id = ? AND state = ?", id, message.StateVisible).
		Update("state", message.StateRemoved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// History pages newest-first and returns each page in ascending display order.
func (r *PostgresMessageRepository) History(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	var messages []message.Message
	var total int64

	q := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND state = ?", conversationID, message.StateVisible)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.
		Order("created_at DESC").
		Order("id DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

func (r *PostgresMessageRepository) MarkReadFor(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *PostgresMessageRepository) CountUnreadFor(ctx context.Context, readerID uuid.UUID, conversationIDs []uuid.UUID) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("conversation_id IN ? AND sender_id <> ? AND read_at IS NULL AND state = ?",
			conversationIDs, readerID, message.StateVisible).
		Count(&count).Error
	return count, err
}
