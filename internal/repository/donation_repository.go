package repository

import (
	"context"
	"time"

	"truthgate-api/internal/domain/donation"
	apperrors "truthgate-api/pkg/errors"

	"gorm.io/gorm"
)

type PostgresDonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &PostgresDonationRepository{db: db}
}

func (r *PostgresDonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	return mapError(r.db.WithContext(ctx).Create(d).Error)
}

func (r *PostgresDonationRepository) GetByReference(ctx context.Context, reference string) (donation.Donation, error) {
	var d donation.Donation
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&d).Error
	if err != nil {
		return donation.Donation{}, mapError(err)
	}
	return d, nil
}

func (r *PostgresDonationRepository) TransitionStatus(ctx context.Context, reference string, from donation.Status, t donation.Transition) error {
	updates := map[string]interface{}{
		"status":         t.To,
		"verified":       t.Verified,
		"failure_reason": t.FailureReason,
		"updated_at":     time.Now().UTC(),
	}
	if t.GatewayReference != "" {
		updates["gateway_reference"] = t.GatewayReference
	}

	res := r.db.WithContext(ctx).
		Model(&donation.Donation{}).
		Where("reference = ? AND status = ?", reference, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

func (r *PostgresDonationRepository) List(ctx context.Context, page, limit int) ([]donation.Donation, int64, error) {
	var donations []donation.Donation
	var total int64

	q := r.db.WithContext(ctx).Model(&donation.Donation{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.
		Order("created_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&donations).Error; err != nil {
		return nil, 0, err
	}
	return donations, total, nil
}
