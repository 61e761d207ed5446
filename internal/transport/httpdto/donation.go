package httpdto

import (
	"time"

	"truthgate-api/internal/domain/donation"

	"github.com/shopspring/decimal"
)

// InitiateDonationRequest is used for POST /v1/donations
type InitiateDonationRequest struct {
	Email  string          `json:"email" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// DonationDTO is the staff view of a donation.
type DonationDTO struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	Email            string          `json:"email"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           donation.Status `json:"status"`
	Verified         bool            `json:"verified"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func FromDonation(d donation.Donation) DonationDTO {
	return DonationDTO{
		ID:               d.ID.String(),
		Reference:        d.Reference,
		Email:            d.Email,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Status:           d.Status,
		Verified:         d.Verified,
		GatewayReference: d.GatewayReference.String,
		FailureReason:    string(d.FailureReason),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
