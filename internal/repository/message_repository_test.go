package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/testutil"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, repo MessageRepository, conversationID, sender uuid.UUID, n int, start time.Time) []message.Message {
	t.Helper()
	out := make([]message.Message, 0, n)
	for i := 0; i < n; i++ {
		m := message.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			SenderID:       sender,
			Content:        fmt.Sprintf("message %d", i),
			State:          message.StateVisible,
			CreatedAt:      start.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(context.Background(), &m))
		out = append(out, m)
	}
	return out
}

func TestMessageRepository_History(t *testing.T) {
	repo := NewMessageRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()
	conv, sender := uuid.New(), uuid.New()
	seeded := seedMessages(t, repo, conv, sender, 5, time.Now().UTC().Add(-time.Minute))

	t.Run("latest page in ascending order", func(t *testing.T) {
		page, total, err := repo.History(ctx, conv, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page, 3)
		assert.Equal(t, []string{"message 2", "message 3", "message 4"},
			[]string{page[0].Content, page[1].Content, page[2].Content})
	})

	t.Run("older page", func(t *testing.T) {
		page, _, err := repo.History(ctx, conv, 2, 3)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "message 0", page[0].Content)
		assert.Equal(t, "message 1", page[1].Content)
	})

	t.Run("removed messages are hidden but kept", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, seeded[4].ID))

		page, total, err := repo.History(ctx, conv, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		for _, m := range page {
			assert.NotEqual(t, seeded[4].ID, m.ID)
		}

		stored, err := repo.GetByID(ctx, seeded[4].ID)
		require.NoError(t, err)
		assert.Equal(t, message.StateRemoved, stored.State)
		assert.Equal(t, "message 4", stored.Content)
	})

	t.Run("removed messages cannot be edited or removed again", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateContent(ctx, seeded[4].ID, "x", time.Now()), apperrors.ErrNotFound)
		assert.ErrorIs(t, repo.Remove(ctx, seeded[4].ID), apperrors.ErrNotFound)
	})
}

func TestMessageRepository_UpdateContent(t *testing.T) {
	repo := NewMessageRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()
	m := seedMessages(t, repo, uuid.New(), uuid.New(), 1, time.Now().UTC())[0]

	editedAt := time.Now().UTC()
	require.NoError(t, repo.UpdateContent(ctx, m.ID, "edited", editedAt))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.EditedAt.Valid)
}

func TestMessageRepository_Unread(t *testing.T) {
	repo := NewMessageRepository(testutil.NewDB(t, Models()...))
	ctx := context.Background()
	conv, owner, staff := uuid.New(), uuid.New(), uuid.New()

	seedMessages(t, repo, conv, owner, 2, time.Now().UTC().Add(-time.Minute))
	seedMessages(t, repo, conv, staff, 3, time.Now().UTC())

	unread, err := repo.CountUnreadFor(ctx, owner, []uuid.UUID{conv})
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	unread, err = repo.CountUnreadFor(ctx, staff, []uuid.UUID{conv})
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	marked, err := repo.MarkReadFor(ctx, conv, owner, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	unread, err = repo.CountUnreadFor(ctx, owner, []uuid.UUID{conv})
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	unread, err = repo.CountUnreadFor(ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}
