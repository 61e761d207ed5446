package donation

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonGatewayDeclined  FailureReason = "gateway_declined"
	ReasonAmountMismatch   FailureReason = "amount_mismatch"
	ReasonCurrencyMismatch FailureReason = "currency_mismatch"
)

// MinorUnitsPerMajor is the gateway's subdivision factor (kobo, cents).
const MinorUnitsPerMajor = 100

// Donation represents the donations table
type Donation struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Reference        string          `gorm:"size:64;not null;uniqueIndex"`
	Email            string          `gorm:"size:254;not null"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency         string          `gorm:"size:3;not null"`
	Status           Status          `gorm:"size:16;not null;index"`
	Verified         bool            `gorm:"not null;default:false"`
	GatewayReference sql.NullString  `gorm:"size:128"`
	FailureReason    FailureReason   `gorm:"size:32"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Donation) TableName() string {
	return "donations"
}

// Transition carries the fields written together with a status change.
type Transition struct {
	To               Status
	Verified         bool
	GatewayReference string
	FailureReason    FailureReason
}

// ToMinorUnits converts a major-unit amount into the gateway's integer unit.
// Amounts with sub-minor precision are rejected rather than rounded.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(decimal.NewFromInt(MinorUnitsPerMajor))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor precision", amount.String())
	}
	return minor.IntPart(), nil
}

// NewReference returns a fresh URL-safe donation reference.
func NewReference() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "don_" + hex.EncodeToString(buf), nil
}
