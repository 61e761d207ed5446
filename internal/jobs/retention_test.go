package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/repository"
	"truthgate-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionSweeper_Sweep(t *testing.T) {
	db := testutil.NewDB(t, repository.Models()...)
	conversations := repository.NewConversationRepository(db)
	messages := repository.NewMessageRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(mode conversation.RetentionMode, age time.Duration, status conversation.Status) uuid.UUID {
		c := conversation.Conversation{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			RetentionMode: mode,
			Status:        status,
			CreatedAt:     now.Add(-age),
			UpdatedAt:     now.Add(-age),
		}
		require.NoError(t, conversations.Create(ctx, &c))
		require.NoError(t, messages.Create(ctx, &message.Message{
			ID:             uuid.New(),
			ConversationID: c.ID,
			SenderID:       c.UserID,
			Content:        "hello",
			State:          message.StateVisible,
			CreatedAt:      c.CreatedAt,
		}))
		return c.ID
	}

	expired := seed(conversation.Retention24h, 25*time.Hour, conversation.StatusActive)
	fresh := seed(conversation.Retention24h, time.Hour, conversation.StatusActive)
	permanent := seed(conversation.RetentionPermanent, 72*time.Hour, conversation.StatusClosed)

	m := metrics.New()
	sweeper := NewRetentionSweeper(conversations, time.Hour, m, nil)
	sweeper.clock = func() time.Time { return now }

	assert.Equal(t, int64(1), sweeper.Sweep(ctx))

	_, err := conversations.GetByID(ctx, expired)
	assert.Error(t, err)
	_, total, err := messages.History(ctx, expired, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = conversations.GetByID(ctx, fresh)
	assert.NoError(t, err)
	_, err = conversations.GetByID(ctx, permanent)
	assert.NoError(t, err)

	assert.Equal(t, int64(0), sweeper.Sweep(ctx))
}

type countingPurger struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPurger) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 0, nil
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRetentionSweeper_RunStopsOnCancel(t *testing.T) {
	purger := &countingPurger{}
	sweeper := NewRetentionSweeper(purger, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return purger.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
