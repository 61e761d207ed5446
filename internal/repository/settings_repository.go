package repository

import (
	"context"
	"time"

	"truthgate-api/internal/domain/settings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresSettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) Get(ctx context.Context) (settings.SiteSettings, error) {
	var s settings.SiteSettings
	err := r.db.WithContext(ctx).
		Where("id = ?", settings.SingletonID).
		First(&s).Error
	if err != nil {
		return settings.SiteSettings{}, mapError(err)
	}
	return s, nil
}

// EnsureDefaults inserts the default row when none exists and returns the stored row.
func (r *PostgresSettingsRepository) EnsureDefaults(ctx context.Context) (settings.SiteSettings, error) {
	defaults := settings.Defaults()
	defaults.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults).Error
	if err != nil {
		return settings.SiteSettings{}, err
	}
	return r.Get(ctx)
}

func (r *PostgresSettingsRepository) Save(ctx context.Context, s settings.SiteSettings) error {
	s.ID = settings.SingletonID
	s.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(&s).Error
}
