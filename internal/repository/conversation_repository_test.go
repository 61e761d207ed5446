package repository

import (
	"context"
	"testing"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/testutil"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(userID uuid.UUID, mode conversation.RetentionMode, createdAt time.Time) *conversation.Conversation {
	return &conversation.Conversation{
		ID:            uuid.New(),
		UserID:        userID,
		RetentionMode: mode,
		Status:        conversation.StatusActive,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestConversationRepository_OneActivePerUser(t *testing.T) {
	repo := NewConversationRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()
	owner := uuid.New()

	first := newConversation(owner, conversation.RetentionPermanent, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, first))

	second := newConversation(owner, conversation.RetentionPermanent, time.Now().UTC())
	assert.ErrorIs(t, repo.Create(ctx, second), apperrors.ErrAlreadyExists)

	active, err := repo.GetActiveByUser(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	t.Run("closed conversation frees the slot", func(t *testing.T) {
		require.NoError(t, repo.SetStatus(ctx, first.ID, conversation.StatusActive, conversation.StatusClosed))

		_, err := repo.GetActiveByUser(ctx, owner)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		third := newConversation(owner, conversation.Retention24h, time.Now().UTC())
		assert.NoError(t, repo.Create(ctx, third))
	})

	t.Run("status change is conditional", func(t *testing.T) {
		err := repo.SetStatus(ctx, first.ID, conversation.StatusActive, conversation.StatusClosed)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})
}

func TestConversationRepository_ClaimCounsellor(t *testing.T) {
	repo := NewConversationRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()

	c := newConversation(uuid.New(), conversation.RetentionPermanent, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, c))

	firstStaff, secondStaff := uuid.New(), uuid.New()

	claimed, err := repo.ClaimCounsellor(ctx, c.ID, firstStaff)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimCounsellor(ctx, c.ID, secondStaff)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.CounsellorID.Valid)
	assert.Equal(t, firstStaff, got.CounsellorID.UUID)

	ids, err := repo.ListAssignedTo(ctx, firstStaff)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID}, ids)

	unassigned, err := repo.CountUnassignedActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unassigned)
}

func TestConversationRepository_Listing(t *testing.T) {
	repo := NewConversationRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()
	owner := uuid.New()

	removed := newConversation(owner, conversation.RetentionPermanent, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, removed))
	require.NoError(t, repo.SetStatus(ctx, removed.ID, conversation.StatusActive, conversation.StatusRemovedByUser))

	current := newConversation(owner, conversation.RetentionPermanent, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, current))

	other := newConversation(uuid.New(), conversation.RetentionPermanent, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, other))

	mine, err := repo.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, current.ID, mine[0].ID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	count, err := repo.CountUnassignedActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestConversationRepository_PurgeExpired(t *testing.T) {
	db := testutil.NewDB(t, Models()...)
	repo := NewConversationRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := newConversation(uuid.New(), conversation.Retention24h, now.Add(-25*time.Hour))
	fresh := newConversation(uuid.New(), conversation.Retention24h, now.Add(-time.Hour))
	permanent := newConversation(uuid.New(), conversation.RetentionPermanent, now.Add(-72*time.Hour))
	for _, c := range []*conversation.Conversation{expired, fresh, permanent} {
		require.NoError(t, repo.Create(ctx, c))
	}

	doomed := &message.Message{
		ID:             uuid.New(),
		ConversationID: expired.ID,
		SenderID:       expired.UserID,
		Content:        "will be purged",
		State:          message.StateVisible,
		CreatedAt:      now.Add(-25 * time.Hour),
	}
	require.NoError(t, messages.Create(ctx, doomed))

	purged, err := repo.PurgeExpired(ctx, now.Add(-conversation.RetentionWindow))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.GetByID(ctx, expired.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = messages.GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, permanent.ID)
	assert.NoError(t, err)
}
