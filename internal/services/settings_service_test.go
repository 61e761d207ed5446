package services

import (
	"context"
	"testing"

	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService(t *testing.T) {
	repo := repository.NewSettingsRepository(newTestDB(t))
	svc := NewSettingsService(repo)
	ctx := context.Background()

	assert.True(t, svc.Current().GivingEnabled, "defaults before initialization")

	require.NoError(t, svc.Initialize(ctx))
	assert.Equal(t, settings.SingletonID, svc.Current().ID)

	disabled := false
	url := "https://www.youtube.com/watch?v=abc123"
	updated, err := svc.Update(ctx, SettingsPatch{GivingEnabled: &disabled, LiveStreamURL: &url})
	require.NoError(t, err)
	assert.False(t, updated.GivingEnabled)
	assert.Equal(t, "https://www.youtube.com/embed/abc123", svc.Current().EmbedURL())

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, stored.GivingEnabled)

	t.Run("reinitializing keeps stored values", func(t *testing.T) {
		fresh := NewSettingsService(repo)
		require.NoError(t, fresh.Initialize(ctx))
		assert.False(t, fresh.Current().GivingEnabled)
		assert.Equal(t, url, fresh.Current().LiveStreamURL)
	})
}
