package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents the users table
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:150;not null;uniqueIndex"`
	Email        string    `gorm:"size:254"`
	FirstName    string    `gorm:"size:150"`
	PasswordHash string    `gorm:"not null"`
	IsStaff      bool      `gorm:"not null;default:false"`
	IsActive     bool      `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}

// Actor is the authenticated identity handed to services.
type Actor struct {
	ID       uuid.UUID
	Username string
	IsStaff  bool
}

func (u User) Actor() Actor {
	return Actor{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}
