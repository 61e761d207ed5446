package webhook

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeReceived         Outcome = "received"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnknownReference Outcome = "unknown_reference"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeDeclined         Outcome = "declined"
	OutcomeIntegrityFailure Outcome = "integrity_failure"
	OutcomeRetry            Outcome = "retry"
)

// Event is an audit row for one authenticated gateway delivery.
type Event struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Provider        string    `gorm:"size:32;not null;index"`
	EventType       string    `gorm:"size:64;not null"`
	Reference       string    `gorm:"size:64;index"`
	SignatureValid  bool      `gorm:"not null"`
	Payload         string    `gorm:"type:text"`
	Outcome         Outcome   `gorm:"size:32;not null"`
	ProcessingError sql.NullString
	ReceivedAt      time.Time `gorm:"not null"`
	ProcessedAt     sql.NullTime
}

func (Event) TableName() string {
	return "webhook_events"
}
