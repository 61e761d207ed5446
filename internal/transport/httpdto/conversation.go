package httpdto

import (
	"time"

	"truthgate-api/internal/domain/conversation"
)

// StartConversationRequest is used for POST /v1/counsel/conversations
type StartConversationRequest struct {
	RetentionMode string `json:"retention_mode,omitempty"`
}

type ConversationDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CounsellorID  string    `json:"counsellor_id,omitempty"`
	RetentionMode string    `json:"retention_mode"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChatRoomDTO is returned when a participant opens a conversation.
type ChatRoomDTO struct {
	Conversation ConversationDTO `json:"conversation"`
	Messages     []MessageDTO    `json:"messages"`
	Total        int64           `json:"total"`
}

func FromConversation(c conversation.Conversation) ConversationDTO {
	dto := ConversationDTO{
		ID:            c.ID.String(),
		UserID:        c.UserID.String(),
		RetentionMode: string(c.RetentionMode),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.CounsellorID.Valid {
		dto.CounsellorID = c.CounsellorID.UUID.String()
	}
	return dto
}

func FromConversations(items []conversation.Conversation) []ConversationDTO {
	out := make([]ConversationDTO, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversation(c))
	}
	return out
}
