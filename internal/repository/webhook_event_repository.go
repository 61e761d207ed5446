package repository

import (
	"context"
	"database/sql"
	"time"

	"truthgate-api/internal/domain/webhook"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresWebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &PostgresWebhookEventRepository{db: db}
}

func (r *PostgresWebhookEventRepository) Create(ctx context.Context, e *webhook.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	return mapError(r.db.WithContext(ctx).Create(e).Error)
}

func (r *PostgresWebhookEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID, outcome webhook.Outcome, processingErr string) error {
	updates := map[string]interface{}{
		"outcome":      outcome,
		"processed_at": time.Now().UTC(),
	}
	if processingErr != "" {
		updates["processing_error"] = sql.NullString{String: processingErr, Valid: true}
	}

	res := r.db.WithContext(ctx).
		Model(&webhook.Event{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
