package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/events"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/proxy"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxMessageLength = 5000

// SendMessage persists a message and then fans it out. Whitespace-only
// content is ignored and returns (nil, nil). A failed broadcast never
// undoes the stored message.
func (s *CounselService) SendMessage(ctx context.Context, conversationID uuid.UUID, actor user.Actor, content string) (*message.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, apperrors.ErrInvalidInput
	}

	conv, err := s.access.CanSendMessage(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       actor.ID,
		Content:        content,
		State:          message.StateVisible,
		CreatedAt:      s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, conv.ID, msg.CreatedAt); err != nil {
		s.log.FromContext(ctx).Warn("failed to touch conversation",
			zap.String("conversation_id", conv.ID.String()), zap.Error(err))
	}
	s.metrics.ObserveMessage(metrics.KindCreated)

	s.broadcast(ctx, conv.ID, events.NewMessageFrame(msg.ID, conv.ID, actor.ID, actor.Username, msg.Content, msg.CreatedAt))
	return msg, nil
}

// EditMessage replaces the content of a visible message. Only its sender may edit.
func (s *CounselService) EditMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor, content string) (message.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxMessageLength {
		return message.Message{}, apperrors.ErrInvalidInput
	}

	msg, err := s.modifiable(ctx, messageID, actor)
	if err != nil {
		return message.Message{}, err
	}

	editedAt := s.now()
	if err := s.messages.UpdateContent(ctx, msg.ID, content, editedAt); err != nil {
		return message.Message{}, err
	}
	msg.Content = content
	msg.EditedAt.Time, msg.EditedAt.Valid = editedAt, true
	s.metrics.ObserveMessage(metrics.KindEdited)

	s.broadcast(ctx, msg.ConversationID, events.NewMessageEditFrame(msg.ID, content, editedAt))
	return msg, nil
}

// DeleteMessage soft-deletes a message. The row and its content are kept.
func (s *CounselService) DeleteMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor) error {
	msg, err := s.modifiable(ctx, messageID, actor)
	if err != nil {
		return err
	}
	if err := s.messages.Remove(ctx, msg.ID); err != nil {
		return err
	}
	s.metrics.ObserveMessage(metrics.KindDeleted)

	s.broadcast(ctx, msg.ConversationID, events.NewMessageDeleteFrame(msg.ID))
	return nil
}

// History returns one page of visible messages in ascending order.
func (s *CounselService) History(ctx context.Context, conversationID uuid.UUID, actor user.Actor, page, limit int) ([]message.Message, int64, error) {
	if _, err := s.access.CanViewConversation(ctx, actor, conversationID); err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.messages.History(ctx, conversationID, page, limit)
}

// modifiable loads a visible message the actor is allowed to change.
// Messages in conversations the actor cannot see are reported as missing.
func (s *CounselService) modifiable(ctx context.Context, messageID uuid.UUID, actor user.Actor) (message.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.IsRemoved() {
		return message.Message{}, apperrors.ErrNotFound
	}
	if _, err := s.access.CanViewConversation(ctx, actor, msg.ConversationID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return message.Message{}, apperrors.ErrForbidden
		}
		return message.Message{}, err
	}
	if err := proxy.CanModifyMessage(msg, actor); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

func (s *CounselService) broadcast(ctx context.Context, conversationID uuid.UUID, frame events.Frame) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(ctx, conversationID, frame); err != nil {
		s.log.FromContext(ctx).Warn("broadcast failed",
			zap.String("conversation_id", conversationID.String()),
			zap.String("type", frame.FrameType()),
			zap.Error(err))
	}
}
