package apperrors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAlreadyExists      = errors.New("already exists")
)

// Domain errors
var (
	ErrConversationClosed = errors.New("conversation is not accepting messages")
	ErrGivingDisabled     = errors.New("online giving is disabled")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrLockHeld           = errors.New("resource is locked by another worker")
)

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}
