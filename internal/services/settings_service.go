package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"
)

// SettingsProvider exposes the current site configuration snapshot.
type SettingsProvider interface {
	Current() settings.SiteSettings
}

// SettingsService keeps the singleton site_settings row in memory. It must be
// initialized once at startup; Update writes through and swaps the snapshot.
type SettingsService struct {
	repo    repository.SettingsRepository
	current atomic.Pointer[settings.SiteSettings]
}

func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Initialize(ctx context.Context) error {
	loaded, err := s.repo.EnsureDefaults(ctx)
	if err != nil {
		return err
	}
	s.current.Store(&loaded)
	return nil
}

func (s *SettingsService) Current() settings.SiteSettings {
	if snap := s.current.Load(); snap != nil {
		return *snap
	}
	return settings.Defaults()
}

type SettingsPatch struct {
	LiveStreamURL    *string
	IsLiveNow        *bool
	GivingEnabled    *bool
	GatewayPublicKey *string
}

func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (settings.SiteSettings, error) {
	next := s.Current()
	if patch.LiveStreamURL != nil {
		next.LiveStreamURL = strings.TrimSpace(*patch.LiveStreamURL)
	}
	if patch.IsLiveNow != nil {
		next.IsLiveNow = *patch.IsLiveNow
	}
	if patch.GivingEnabled != nil {
		next.GivingEnabled = *patch.GivingEnabled
	}
	if patch.GatewayPublicKey != nil {
		next.GatewayPublicKey = strings.TrimSpace(*patch.GatewayPublicKey)
	}
	if len(next.LiveStreamURL) > 500 || len(next.GatewayPublicKey) > 100 {
		return settings.SiteSettings{}, apperrors.ErrInvalidInput
	}
	next.ID = settings.SingletonID
	next.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, next); err != nil {
		return settings.SiteSettings{}, err
	}
	s.current.Store(&next)
	return next, nil
}
