package services

import (
	"context"
	"errors"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/events"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/proxy"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"
	"truthgate-api/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// PresenceCounter reports how many counsellors hold a live chat connection.
type PresenceCounter interface {
	OnlineCount(ctx context.Context) (int64, error)
}

// CounselService owns conversations between users and staff counsellors
// and the messages inside them.
type CounselService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	access        *proxy.AccessControl
	broadcaster   events.Broadcaster
	presence      PresenceCounter
	metrics       *metrics.Metrics
	log           *logger.Logger
	now           func() time.Time
}

func NewCounselService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	broadcaster events.Broadcaster,
	log *logger.Logger,
) *CounselService {
	if log == nil {
		log = logger.NewNop()
	}
	return &CounselService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		access:        proxy.NewAccessControl(conversations),
		broadcaster:   broadcaster,
		log:           log.With(zap.String("component", "counsel")),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *CounselService) WithPresence(p PresenceCounter) *CounselService {
	s.presence = p
	return s
}

func (s *CounselService) WithMetrics(m *metrics.Metrics) *CounselService {
	s.metrics = m
	return s
}

// StartConversation returns the caller's ACTIVE conversation, creating one
// when none exists. Concurrent starts converge on the same row through the
// one-active-per-user unique index.
func (s *CounselService) StartConversation(ctx context.Context, actor user.Actor, retention conversation.RetentionMode) (conversation.Conversation, error) {
	existing, err := s.conversations.GetActiveByUser(ctx, actor.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	now := s.now()
	conv := conversation.Conversation{
		ID:            uuid.New(),
		UserID:        actor.ID,
		RetentionMode: conversation.ParseRetentionMode(string(retention)),
		Status:        conversation.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.conversations.Create(ctx, &conv); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return s.conversations.GetActiveByUser(ctx, actor.ID)
		}
		return conversation.Conversation{}, err
	}
	return conv, nil
}

type ChatRoom struct {
	Conversation conversation.Conversation
	Messages     []message.Message
	Total        int64
}

// OpenChatRoom loads a conversation for reading. The first staff member to
// open an unassigned conversation becomes its counsellor. Messages from the
// other party are marked read.
func (s *CounselService) OpenChatRoom(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (ChatRoom, error) {
	conv, err := s.access.CanViewConversation(ctx, actor, conversationID)
	if err != nil {
		return ChatRoom{}, err
	}

	if actor.IsStaff && !conv.HasCounsellor() {
		claimed, err := s.conversations.ClaimCounsellor(ctx, conv.ID, actor.ID)
		if err != nil {
			return ChatRoom{}, err
		}
		if claimed {
			s.log.FromContext(ctx).Info("counsellor assigned",
				zap.String("conversation_id", conv.ID.String()),
				zap.String("counsellor_id", actor.ID.String()))
		}
		if conv, err = s.conversations.GetByID(ctx, conv.ID); err != nil {
			return ChatRoom{}, err
		}
	}

	if _, err := s.messages.MarkReadFor(ctx, conv.ID, actor.ID, s.now()); err != nil {
		return ChatRoom{}, err
	}

	msgs, total, err := s.messages.History(ctx, conv.ID, 1, defaultHistoryLimit)
	if err != nil {
		return ChatRoom{}, err
	}
	return ChatRoom{Conversation: conv, Messages: msgs, Total: total}, nil
}

func (s *CounselService) GetConversation(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (conversation.Conversation, error) {
	return s.access.CanViewConversation(ctx, actor, conversationID)
}

// CanJoin is the access gate for real-time connections.
func (s *CounselService) CanJoin(ctx context.Context, conversationID uuid.UUID, actor user.Actor) error {
	_, err := s.access.CanViewConversation(ctx, actor, conversationID)
	return err
}

// CloseConversation stops a conversation from accepting messages. Closing an
// already closed conversation is a no-op.
func (s *CounselService) CloseConversation(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (conversation.Conversation, error) {
	conv, err := s.access.CanViewConversation(ctx, actor, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.IsActive() {
		return conv, nil
	}

	err = s.conversations.SetStatus(ctx, conv.ID, conversation.StatusActive, conversation.StatusClosed)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidTransition) {
		return conversation.Conversation{}, err
	}
	return s.conversations.GetByID(ctx, conv.ID)
}

// RemoveForUser hides the conversation from its owner. Messages are kept and
// staff can still read it.
func (s *CounselService) RemoveForUser(ctx context.Context, conversationID uuid.UUID, actor user.Actor) error {
	conv, err := s.access.CanViewConversation(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	if !conv.IsOwnedBy(actor.ID) {
		return apperrors.ErrForbidden
	}
	if conv.Status == conversation.StatusRemovedByUser {
		return nil
	}

	err = s.conversations.SetStatus(ctx, conv.ID, conv.Status, conversation.StatusRemovedByUser)
	if errors.Is(err, apperrors.ErrInvalidTransition) {
		return apperrors.ErrConflict
	}
	return err
}

// ListConversations returns the owner's own conversations, or every ACTIVE
// conversation for staff. Newest activity first.
func (s *CounselService) ListConversations(ctx context.Context, actor user.Actor) ([]conversation.Conversation, error) {
	if actor.IsStaff {
		return s.conversations.ListActive(ctx)
	}
	return s.conversations.ListForUser(ctx, actor.ID)
}

type OnlineStatus struct {
	Online               bool  `json:"online"`
	CounsellorsConnected int64 `json:"counsellors_connected"`
}

// OnlineStatus reports whether any staff account is active. When presence
// tracking is available the live connection count is included.
func (s *CounselService) OnlineStatus(ctx context.Context) (OnlineStatus, error) {
	online, err := s.users.AnyActiveStaff(ctx)
	if err != nil {
		return OnlineStatus{}, err
	}
	status := OnlineStatus{Online: online}
	if s.presence != nil {
		count, err := s.presence.OnlineCount(ctx)
		if err != nil {
			s.log.FromContext(ctx).Warn("presence lookup failed", zap.Error(err))
			return status, nil
		}
		status.CounsellorsConnected = count
	}
	return status, nil
}

// Badge splits counsellor work from the actor's own session. Staff get both
// halves since they can hold a session of their own.
type Badge struct {
	AssignedUnread   int64 `json:"assigned_unread,omitempty"`
	Unassigned       int64 `json:"unassigned,omitempty"`
	Unread           int64 `json:"unread"`
	HasActiveSession bool  `json:"has_active_session"`
}

// Badge summarises what needs the actor's attention.
func (s *CounselService) Badge(ctx context.Context, actor user.Actor) (Badge, error) {
	var badge Badge
	if actor.IsStaff {
		assigned, err := s.conversations.ListAssignedTo(ctx, actor.ID)
		if err != nil {
			return Badge{}, err
		}
		if badge.AssignedUnread, err = s.messages.CountUnreadFor(ctx, actor.ID, assigned); err != nil {
			return Badge{}, err
		}
		if badge.Unassigned, err = s.conversations.CountUnassignedActive(ctx); err != nil {
			return Badge{}, err
		}
	}

	active, err := s.conversations.GetActiveByUser(ctx, actor.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return badge, nil
	}
	if err != nil {
		return Badge{}, err
	}
	badge.HasActiveSession = true
	if badge.Unread, err = s.messages.CountUnreadFor(ctx, actor.ID, []uuid.UUID{active.ID}); err != nil {
		return Badge{}, err
	}
	return badge, nil
}
