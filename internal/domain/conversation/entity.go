package conversation

import (
	"time"

	"github.com/google/uuid"
)

type RetentionMode string

const (
	Retention24h       RetentionMode = "24h"
	RetentionPermanent RetentionMode = "permanent"
)

// RetentionWindow is how long a 24h conversation lives after creation.
const RetentionWindow = 24 * time.Hour

// ParseRetentionMode falls back to permanent for empty or unknown input.
func ParseRetentionMode(v string) RetentionMode {
	if RetentionMode(v) == Retention24h {
		return Retention24h
	}
	return RetentionPermanent
}

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
	// StatusRemovedByUser hides the conversation from its owner.
	// Staff keep read access for the audit trail.
	StatusRemovedByUser Status = "REMOVED_BY_USER"
)

// Conversation represents the conversations table
type Conversation struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_conversations_one_active,where:status = 'ACTIVE'"`
	CounsellorID  uuid.NullUUID `gorm:"type:uuid;index"`
	RetentionMode RetentionMode `gorm:"size:16;not null;default:permanent"`
	Status        Status        `gorm:"size:16;not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c Conversation) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}

func (c Conversation) IsActive() bool {
	return c.Status == StatusActive
}

func (c Conversation) HasCounsellor() bool {
	return c.CounsellorID.Valid
}
