package httpdto

import (
	"time"

	"truthgate-api/internal/domain/message"
)

// SendMessageRequest is used for POST /v1/counsel/conversations/:id/messages
// and PATCH /v1/counsel/messages/:id
type SendMessageRequest struct {
	Message string `json:"message"`
}

type MessageDTO struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Message        string     `json:"message"`
	Read           bool       `json:"read"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	CreatedAt      time.Time  `json:"timestamp"`
}

func FromMessage(m message.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Message:        m.Content,
		Read:           m.IsRead(),
		CreatedAt:      m.CreatedAt,
	}
	if m.EditedAt.Valid {
		t := m.EditedAt.Time
		dto.EditedAt = &t
	}
	return dto
}

func FromMessages(items []message.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(items))
	for _, m := range items {
		out = append(out, FromMessage(m))
	}
	return out
}
