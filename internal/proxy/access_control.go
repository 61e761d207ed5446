package proxy

import (
	"context"
	"errors"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"

	"github.com/google/uuid"
)

// HasAccess reports whether actor may read or join conv: the owner or any staff member.
func HasAccess(conv conversation.Conversation, actor user.Actor) bool {
	if actor.ID == uuid.Nil {
		return false
	}
	return conv.IsOwnedBy(actor.ID) || actor.IsStaff
}

type AccessControl struct {
	conversationRepo repository.ConversationRepository
}

func NewAccessControl(conversationRepo repository.ConversationRepository) *AccessControl {
	return &AccessControl{conversationRepo: conversationRepo}
}

// CanViewConversation loads the conversation and checks access. A denied
// actor gets ErrNotFound so protected conversations are indistinguishable
// from missing ones. Owners lose access once they removed it on their side.
func (a *AccessControl) CanViewConversation(ctx context.Context, actor user.Actor, conversationID uuid.UUID) (conversation.Conversation, error) {
	conv, err := a.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !HasAccess(conv, actor) {
		return conversation.Conversation{}, apperrors.ErrNotFound
	}
	if !actor.IsStaff && conv.Status == conversation.StatusRemovedByUser {
		return conversation.Conversation{}, apperrors.ErrNotFound
	}
	return conv, nil
}

// CanSendMessage additionally requires the conversation to accept messages.
func (a *AccessControl) CanSendMessage(ctx context.Context, actor user.Actor, conversationID uuid.UUID) (conversation.Conversation, error) {
	conv, err := a.CanViewConversation(ctx, actor, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.IsActive() {
		return conversation.Conversation{}, apperrors.ErrConversationClosed
	}
	return conv, nil
}

// CanModifyMessage allows only the original sender. Staff status grants nothing here.
func CanModifyMessage(msg message.Message, actor user.Actor) error {
	if msg.SenderID != actor.ID {
		return apperrors.ErrForbidden
	}
	return nil
}

// IsDenied reports whether err is an access decision rather than a failure.
func IsDenied(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrForbidden)
}
