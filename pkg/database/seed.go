package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/domain/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding a development database
type SeedConfig struct {
	CounsellorUsername string
	CounsellorPassword string
	MemberCount        int
	MemberPassword     string
	Currency           string
}

func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		CounsellorUsername: "counsellor",
		CounsellorPassword: "Counsel@123!",
		MemberCount:        3,
		MemberPassword:     "Member@123!",
		Currency:           "NGN",
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	Counsellor    *user.User
	Members       []*user.User
	Conversations []*conversation.Conversation
	Messages      []*message.Message
	Donations     []*donation.Donation
}

// Seed fills db with demo data: a counsellor, some members, one active
// conversation per member and a pending and a settled donation. Existing
// users with the same usernames are reused. Everything runs in one
// transaction.
func Seed(ctx context.Context, db *gorm.DB, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	log.Println("Starting database seeding...")

	result := &SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedSiteSettings(tx); err != nil {
			return fmt.Errorf("failed to seed site settings: %w", err)
		}

		counsellor, err := seedUser(tx, cfg.CounsellorUsername, cfg.CounsellorPassword, true)
		if err != nil {
			return fmt.Errorf("failed to seed counsellor: %w", err)
		}
		result.Counsellor = counsellor

		for i := 1; i <= cfg.MemberCount; i++ {
			member, err := seedUser(tx, fmt.Sprintf("member%d", i), cfg.MemberPassword, false)
			if err != nil {
				return fmt.Errorf("failed to seed member %d: %w", i, err)
			}
			result.Members = append(result.Members, member)

			conv, msgs, err := seedConversation(tx, member, counsellor)
			if err != nil {
				return fmt.Errorf("failed to seed conversation for %s: %w", member.Username, err)
			}
			if conv != nil {
				result.Conversations = append(result.Conversations, conv)
				result.Messages = append(result.Messages, msgs...)
			}
		}

		donations, err := seedDonations(tx, cfg.Currency)
		if err != nil {
			return fmt.Errorf("failed to seed donations: %w", err)
		}
		result.Donations = donations
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Database seeding completed: %d members, %d conversations, %d messages, %d donations",
		len(result.Members), len(result.Conversations), len(result.Messages), len(result.Donations))
	return result, nil
}

func seedSiteSettings(tx *gorm.DB) error {
	var existing settings.SiteSettings
	err := tx.First(&existing, settings.SingletonID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	defaults := settings.Defaults()
	defaults.UpdatedAt = time.Now().UTC()
	return tx.Create(&defaults).Error
}

func seedUser(tx *gorm.DB, username, password string, staff bool) (*user.User, error) {
	var existing user.User
	err := tx.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsStaff:      staff,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, err
	}
	log.Printf("User seeded: %s (staff=%t)", username, staff)
	return u, nil
}

// seedConversation skips members who already have an active conversation.
func seedConversation(tx *gorm.DB, member, counsellor *user.User) (*conversation.Conversation, []*message.Message, error) {
	var count int64
	if err := tx.Model(&conversation.Conversation{}).
		Where("user_id = ? AND status = ?", member.ID, conversation.StatusActive).
		Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count > 0 {
		return nil, nil, nil
	}

	now := time.Now().UTC()
	conv := &conversation.Conversation{
		ID:            uuid.New(),
		UserID:        member.ID,
		CounsellorID:  uuid.NullUUID{UUID: counsellor.ID, Valid: true},
		RetentionMode: conversation.RetentionPermanent,
		Status:        conversation.StatusActive,
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now,
	}
	if err := tx.Create(conv).Error; err != nil {
		return nil, nil, err
	}

	lines := []struct {
		sender  uuid.UUID
		content string
	}{
		{member.ID, "Hello, I would like to talk to someone."},
		{counsellor.ID, "Welcome. I am here to listen."},
	}
	msgs := make([]*message.Message, 0, len(lines))
	for i, line := range lines {
		m := &message.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       line.sender,
			Content:        line.content,
			State:          message.StateVisible,
			CreatedAt:      now.Add(-time.Hour + time.Duration(i)*time.Minute),
		}
		if err := tx.Create(m).Error; err != nil {
			return nil, nil, err
		}
		msgs = append(msgs, m)
	}
	return conv, msgs, nil
}

func seedDonations(tx *gorm.DB, currency string) ([]*donation.Donation, error) {
	now := time.Now().UTC()
	samples := []struct {
		amount string
		status donation.Status
	}{
		{"5000.00", donation.StatusPending},
		{"12500.50", donation.StatusSuccess},
	}

	out := make([]*donation.Donation, 0, len(samples))
	for _, s := range samples {
		ref, err := donation.NewReference()
		if err != nil {
			return nil, err
		}
		d := &donation.Donation{
			ID:        uuid.New(),
			Reference: ref,
			Email:     "giver@example.com",
			Amount:    decimal.RequireFromString(s.amount),
			Currency:  currency,
			Status:    s.status,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.status == donation.StatusSuccess {
			d.Verified = true
			d.GatewayReference = sql.NullString{String: "seed_" + ref, Valid: true}
		}
		if err := tx.Create(d).Error; err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
