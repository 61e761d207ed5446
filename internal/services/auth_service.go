package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"truthgate-api/config"
	"truthgate-api/internal/domain/user"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTExpiryMin) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: ttl,
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	Password  string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	IsStaff   bool   `json:"is_staff"`
}

type AccessClaims struct {
	UserID  string `json:"sub"`
	IsStaff bool   `json:"stf,omitempty"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.userRepo.GetUserByUsername(ctx, in.Username); err == nil {
		return AuthResponse{}, apperrors.ErrAlreadyExists
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	now := time.Now().UTC()
	newUser := &user.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issue(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return AuthResponse{}, apperrors.ErrInvalidInput
	}

	u, err := s.userRepo.GetUserByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return AuthResponse{}, apperrors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, apperrors.ErrUnauthorized
	}
	if !u.IsActive {
		return AuthResponse{}, apperrors.ErrForbidden
	}

	return s.issue(u)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, apperrors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, apperrors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, apperrors.ErrUnauthorized
	}

	return *claims, nil
}

// ResolveActor reloads the user behind claims. Staff status is taken from the
// database, not the token, so a demoted account loses access immediately.
func (s *AuthService) ResolveActor(ctx context.Context, claims AccessClaims) (user.Actor, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return user.Actor{}, apperrors.ErrUnauthorized
	}
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return user.Actor{}, apperrors.ErrUnauthorized
		}
		return user.Actor{}, err
	}
	if !u.IsActive {
		return user.Actor{}, apperrors.ErrUnauthorized
	}
	return u.Actor(), nil
}

// Authenticate parses token and resolves its actor in one step.
func (s *AuthService) Authenticate(ctx context.Context, token string) (user.Actor, error) {
	claims, err := s.ParseAccessToken(token)
	if err != nil {
		return user.Actor{}, err
	}
	return s.ResolveActor(ctx, claims)
}

// EnsureAdmin creates a staff account unless the username is already taken.
// It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, apperrors.ErrInvalidInput
	}

	if _, err := s.userRepo.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	admin := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		IsStaff:      true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) issue(u user.User) (AuthResponse, error) {
	token, expiresIn, err := s.newAccessToken(u)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        toUserInfo(u),
	}, nil
}

func (s *AuthService) newAccessToken(u user.User) (string, int64, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:  u.ID.String(),
		IsStaff: u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.ID.String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return 400
	case errors.Is(err, apperrors.ErrUnauthorized):
		return 401
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrGivingDisabled):
		return 403
	case errors.Is(err, apperrors.ErrNotFound):
		return 404
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrConversationClosed), errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrLockHeld):
		return 409
	case errors.Is(err, apperrors.ErrRateLimited):
		return 429
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		return 502
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return 503
	default:
		return 500
	}
}

type ctxKey string

var actorKey ctxKey = "actor"

func WithActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (user.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(user.Actor)
	if !ok || actor.ID == uuid.Nil {
		return user.Actor{}, false
	}
	return actor, true
}

func validateRegister(in RegisterInput) error {
	if in.Username == "" || len(in.Username) > 150 {
		return apperrors.ErrInvalidInput
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperrors.ErrInvalidInput
		}
	}
	if len(in.Password) < minPasswordLength {
		return apperrors.ErrInvalidInput
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		IsStaff:   u.IsStaff,
	}
}
