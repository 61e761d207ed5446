package services

import (
	"context"
	"sync"
	"testing"

	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/events"
	"truthgate-api/internal/gateway"
	"truthgate-api/internal/repository"
	"truthgate-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu           sync.Mutex
	verification gateway.Verification
	verifyErr    error
	onVerify     func()
	verifyCalls  int
	initResult   gateway.InitResult
	initErr      error
	initRequests []gateway.InitRequest
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (gateway.Verification, error) {
	f.mu.Lock()
	f.verifyCalls++
	hook := f.onVerify
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.verification, f.verifyErr
}

func (f *fakeGateway) Initialize(ctx context.Context, req gateway.InitRequest) (gateway.InitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initRequests = append(f.initRequests, req)
	return f.initResult, f.initErr
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

func verified(status string, amount int64, currency string, id string) gateway.Verification {
	var v gateway.Verification
	v.Status = true
	v.Data.Status = status
	v.Data.Amount = amount
	v.Data.Currency = currency
	v.Data.ID = gateway.TransactionID(id)
	return v
}

type sentFrame struct {
	conversationID uuid.UUID
	frame          events.Frame
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []sentFrame
	err    error
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, conversationID uuid.UUID, frame events.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, sentFrame{conversationID: conversationID, frame: frame})
	return b.err
}

func (b *recordingBroadcaster) sent() []sentFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sentFrame(nil), b.frames...)
}

type stubLocker struct {
	held       bool
	released   int
	releaseErr error
}

func (l *stubLocker) TryLock(ctx context.Context, name string) (bool, func() error, error) {
	if l.held {
		return false, func() error { return nil }, nil
	}
	return true, func() error {
		l.released++
		return l.releaseErr
	}, nil
}

type stubPresence struct{ count int64 }

func (p stubPresence) OnlineCount(ctx context.Context) (int64, error) { return p.count, nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewDB(t, repository.Models()...)
}

func createUser(t *testing.T, repo repository.UserRepository, username string, staff bool) user.Actor {
	t.Helper()
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "x",
		IsStaff:      staff,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u.Actor()
}
