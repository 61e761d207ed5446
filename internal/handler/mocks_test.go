package handler

import (
	"context"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/domain/message"
	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockWebhookProcessor struct{ mock.Mock }

func (m *mockWebhookProcessor) ProcessWebhookNotification(ctx context.Context, rawBody []byte, signature string) int {
	args := m.Called(ctx, rawBody, signature)
	return args.Int(0)
}

type mockDonationService struct{ mock.Mock }

func (m *mockDonationService) InitiateDonation(ctx context.Context, in services.InitiateInput) (services.InitiateResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(services.InitiateResult), args.Error(1)
}

func (m *mockDonationService) DonationStatus(ctx context.Context, reference string) (services.DonationView, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(services.DonationView), args.Error(1)
}

func (m *mockDonationService) ListDonations(ctx context.Context, page, limit int) ([]donation.Donation, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]donation.Donation), args.Get(1).(int64), args.Error(2)
}

type mockSettingsService struct{ mock.Mock }

func (m *mockSettingsService) Current() settings.SiteSettings {
	return m.Called().Get(0).(settings.SiteSettings)
}

func (m *mockSettingsService) Update(ctx context.Context, patch services.SettingsPatch) (settings.SiteSettings, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(settings.SiteSettings), args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, in services.RegisterInput) (services.AuthResponse, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(services.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, in services.LoginInput) (services.AuthResponse, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(services.AuthResponse), args.Error(1)
}

type mockCounselService struct{ mock.Mock }

func (m *mockCounselService) StartConversation(ctx context.Context, actor user.Actor, retention conversation.RetentionMode) (conversation.Conversation, error) {
	args := m.Called(ctx, actor, retention)
	return args.Get(0).(conversation.Conversation), args.Error(1)
}

func (m *mockCounselService) ListConversations(ctx context.Context, actor user.Actor) ([]conversation.Conversation, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]conversation.Conversation), args.Error(1)
}

func (m *mockCounselService) OpenChatRoom(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (services.ChatRoom, error) {
	args := m.Called(ctx, conversationID, actor)
	return args.Get(0).(services.ChatRoom), args.Error(1)
}

func (m *mockCounselService) History(ctx context.Context, conversationID uuid.UUID, actor user.Actor, page, limit int) ([]message.Message, int64, error) {
	args := m.Called(ctx, conversationID, actor, page, limit)
	return args.Get(0).([]message.Message), args.Get(1).(int64), args.Error(2)
}

func (m *mockCounselService) SendMessage(ctx context.Context, conversationID uuid.UUID, actor user.Actor, content string) (*message.Message, error) {
	args := m.Called(ctx, conversationID, actor, content)
	msg, _ := args.Get(0).(*message.Message)
	return msg, args.Error(1)
}

func (m *mockCounselService) EditMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor, content string) (message.Message, error) {
	args := m.Called(ctx, messageID, actor, content)
	return args.Get(0).(message.Message), args.Error(1)
}

func (m *mockCounselService) DeleteMessage(ctx context.Context, messageID uuid.UUID, actor user.Actor) error {
	return m.Called(ctx, messageID, actor).Error(0)
}

func (m *mockCounselService) CloseConversation(ctx context.Context, conversationID uuid.UUID, actor user.Actor) (conversation.Conversation, error) {
	args := m.Called(ctx, conversationID, actor)
	return args.Get(0).(conversation.Conversation), args.Error(1)
}

func (m *mockCounselService) RemoveForUser(ctx context.Context, conversationID uuid.UUID, actor user.Actor) error {
	return m.Called(ctx, conversationID, actor).Error(0)
}

func (m *mockCounselService) OnlineStatus(ctx context.Context) (services.OnlineStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.OnlineStatus), args.Error(1)
}

func (m *mockCounselService) Badge(ctx context.Context, actor user.Actor) (services.Badge, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(services.Badge), args.Error(1)
}
