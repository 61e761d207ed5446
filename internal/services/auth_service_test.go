package services

import (
	"context"
	"testing"
	"time"

	"truthgate-api/config"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, repository.UserRepository) {
	t.Helper()
	users := repository.NewUserRepository(newTestDB(t))
	return NewAuthService(users, &config.Config{JWTSecret: "test-secret", JWTExpiryMin: 15}), users
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, int64(900), reg.ExpiresIn)
	assert.False(t, reg.User.IsStaff)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "another password"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	login, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)

	actor, err := svc.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, actor.ID.String())
	assert.Equal(t, "alice", actor.Username)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)
	for _, in := range []RegisterInput{
		{Username: "", Password: "long enough"},
		{Username: "bob", Password: "short"},
		{Username: "bob", Email: "not-an-email", Password: "long enough"},
	} {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestAuthService_ParseAccessToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ParseAccessToken("")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = svc.ParseAccessToken("not.a.token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	t.Run("wrong key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{UserID: uuid.NewString()})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)
		_, err = svc.ParseAccessToken(signed)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
			UserID: uuid.NewString(),
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ParseAccessToken(signed)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("valid token for a deleted user", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{UserID: uuid.NewString()})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.Authenticate(context.Background(), signed)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	svc, users := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "pastor", "pastor@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "pastor", "pastor@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := users.GetUserByUsername(ctx, "pastor")
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.IsActive)

	online, err := users.AnyActiveStaff(ctx)
	require.NoError(t, err)
	assert.True(t, online)

	_, err = svc.EnsureAdmin(ctx, "", "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ErrInvalidInput, 400},
		{apperrors.ErrUnauthorized, 401},
		{apperrors.ErrForbidden, 403},
		{apperrors.ErrGivingDisabled, 403},
		{apperrors.ErrNotFound, 404},
		{apperrors.ErrConversationClosed, 409},
		{apperrors.ErrAlreadyExists, 409},
		{apperrors.ErrRateLimited, 429},
		{apperrors.ErrGatewayUnavailable, 502},
		{assert.AnError, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)
}
