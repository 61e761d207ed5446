package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateVisible State = "VISIBLE"
	StateRemoved State = "REMOVED"
)

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Content        string    `gorm:"type:text;not null"`
	State          State     `gorm:"size:16;not null;default:VISIBLE"`
	ReadAt         sql.NullTime
	EditedAt       sql.NullTime
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}

func (m Message) IsRead() bool {
	return m.ReadAt.Valid
}

func (m Message) IsRemoved() bool {
	return m.State == StateRemoved
}
