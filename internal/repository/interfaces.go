package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/domain/webhook"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
	AnyActiveStaff(ctx context.Context) (bool, error)
}

type DonationRepository interface {
	Create(ctx context.Context, d *donation.Donation) error
	GetByReference(ctx context.Context, reference string) (donation.Donation, error)
	// TransitionStatus moves the donation out of `from` in a single
	// conditional update. ErrInvalidTransition means another writer got there first.
	TransitionStatus(ctx context.Context, reference string, from donation.Status, t donation.Transition) error
	List(ctx context.Context, page, limit int) ([]donation.Donation, int64, error)
}

type WebhookEventRepository interface {
	Create(ctx context.Context, e *webhook.Event) error
	MarkProcessed(ctx context.Context, id uuid.UUID, outcome webhook.Outcome, processingErr string) error
}

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (conversation.Conversation, error)
	// ClaimCounsellor assigns staffID only while no counsellor is set.
	ClaimCounsellor(ctx context.Context, id, staffID uuid.UUID) (bool, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, from, to conversation.Status) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
	ListActive(ctx context.Context) ([]conversation.Conversation, error)
	ListAssignedTo(ctx context.Context, staffID uuid.UUID) ([]uuid.UUID, error)
	CountUnassignedActive(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error
	Remove(ctx context.Context, id uuid.UUID) error
	History(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error)
	MarkReadFor(ctx context.Context, conversationID, readerID uuid.UUID, at time.Time) (int64, error)
	CountUnreadFor(ctx context.Context, readerID uuid.UUID, conversationIDs []uuid.UUID) (int64, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (settings.SiteSettings, error)
	EnsureDefaults(ctx context.Context) (settings.SiteSettings, error)
	Save(ctx context.Context, s settings.SiteSettings) error
}
