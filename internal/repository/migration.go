package repository

import (
	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/domain/webhook"

	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&donation.Donation{},
		&webhook.Event{},
		&conversation.Conversation{},
		&message.Message{},
		&settings.SiteSettings{},
	}
}

// AutoMigrate builds the schema from the gorm models. Production schemas are
// owned by the goose migrations; this is used for sqlite test databases and
// throwaway dev setups.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
