package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Frame type discriminators sent to chat subscribers.
const (
	FrameTypeMessage       = "message"
	FrameTypeMessageEdit   = "message_edit"
	FrameTypeMessageDelete = "message_delete"
)

// Redis channel names
const (
	ChannelPrefixConversation  = "channel:conversation:"
	ChannelPatternConversation = ChannelPrefixConversation + "*"
)

// ConversationChannel is the broadcast group for one conversation.
func ConversationChannel(conversationID uuid.UUID) string {
	return ChannelPrefixConversation + conversationID.String()
}

// ConversationIDFromChannel is the inverse of ConversationChannel.
func ConversationIDFromChannel(channel string) (uuid.UUID, bool) {
	if !strings.HasPrefix(channel, ChannelPrefixConversation) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(channel, ChannelPrefixConversation))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Frame is anything that can be fanned out to a conversation channel.
type Frame interface {
	FrameType() string
}

type MessageFrame struct {
	Type           string    `json:"type"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Message        string    `json:"message"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Timestamp      time.Time `json:"timestamp"`
}

func (f MessageFrame) FrameType() string { return f.Type }

type MessageEditFrame struct {
	Type      string    `json:"type"`
	MessageID string    `json:"message_id"`
	Message   string    `json:"message"`
	EditedAt  time.Time `json:"edited_at"`
}

func (f MessageEditFrame) FrameType() string { return f.Type }

type MessageDeleteFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
}

func (f MessageDeleteFrame) FrameType() string { return f.Type }

func NewMessageFrame(messageID, conversationID, senderID uuid.UUID, senderUsername, content string, at time.Time) MessageFrame {
	return MessageFrame{
		Type:           FrameTypeMessage,
		MessageID:      messageID.String(),
		ConversationID: conversationID.String(),
		Message:        content,
		SenderID:       senderID.String(),
		SenderUsername: senderUsername,
		Timestamp:      at.UTC(),
	}
}

func NewMessageEditFrame(messageID uuid.UUID, content string, editedAt time.Time) MessageEditFrame {
	return MessageEditFrame{
		Type:      FrameTypeMessageEdit,
		MessageID: messageID.String(),
		Message:   content,
		EditedAt:  editedAt.UTC(),
	}
}

func NewMessageDeleteFrame(messageID uuid.UUID) MessageDeleteFrame {
	return MessageDeleteFrame{Type: FrameTypeMessageDelete, MessageID: messageID.String()}
}

// Broadcaster delivers frames to everyone subscribed to a conversation.
type Broadcaster interface {
	Broadcast(ctx context.Context, conversationID uuid.UUID, frame Frame) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
