package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/domain/webhook"
	"truthgate-api/internal/gateway"
	"truthgate-api/internal/metrics"
	"truthgate-api/internal/repository"
	apperrors "truthgate-api/pkg/errors"
	"truthgate-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventChargeSuccess is the only gateway event that moves a donation.
const EventChargeSuccess = "charge.success"

const webhookProvider = "payment-gateway"

// Outcomes recorded for deliveries that never reach the audit table.
const (
	outcomeMissingSignature = "missing_signature"
	outcomeBadSignature     = "bad_signature"
	outcomeMalformed        = "malformed"
)

// Locker serializes processing of one reference across instances.
type Locker interface {
	TryLock(ctx context.Context, name string) (bool, func() error, error)
}

type DonationConfig struct {
	SecretKey   string
	Currency    string
	CallbackURL string
}

type DonationService struct {
	donations repository.DonationRepository
	events    repository.WebhookEventRepository
	gateway   gateway.Client
	settings  SettingsProvider
	locker    Locker
	metrics   *metrics.Metrics
	log       *logger.Logger
	cfg       DonationConfig
}

func NewDonationService(
	donations repository.DonationRepository,
	events repository.WebhookEventRepository,
	gw gateway.Client,
	settingsProvider SettingsProvider,
	cfg DonationConfig,
	log *logger.Logger,
) *DonationService {
	if log == nil {
		log = logger.NewNop()
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	return &DonationService{
		donations: donations,
		events:    events,
		gateway:   gw,
		settings:  settingsProvider,
		log:       log.With(zap.String("component", "donations")),
		cfg:       cfg,
	}
}

func (s *DonationService) WithLocker(locker Locker) *DonationService {
	s.locker = locker
	return s
}

func (s *DonationService) WithMetrics(m *metrics.Metrics) *DonationService {
	s.metrics = m
	return s
}

type InitiateInput struct {
	Email  string
	Amount decimal.Decimal
}

type InitiateResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// InitiateDonation records a PENDING donation and asks the gateway for a
// checkout URL. When the gateway call fails the PENDING row is kept.
func (s *DonationService) InitiateDonation(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	if s.settings != nil && !s.settings.Current().GivingEnabled {
		return InitiateResult{}, apperrors.ErrGivingDisabled
	}

	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return InitiateResult{}, apperrors.ErrInvalidInput
	}
	if !in.Amount.IsPositive() {
		return InitiateResult{}, apperrors.ErrInvalidInput
	}
	minor, err := donation.ToMinorUnits(in.Amount)
	if err != nil {
		return InitiateResult{}, apperrors.ErrInvalidInput
	}

	reference, err := donation.NewReference()
	if err != nil {
		return InitiateResult{}, err
	}

	now := time.Now().UTC()
	d := &donation.Donation{
		ID:        uuid.New(),
		Reference: reference,
		Email:     email,
		Amount:    in.Amount,
		Currency:  s.cfg.Currency,
		Status:    donation.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.donations.Create(ctx, d); err != nil {
		return InitiateResult{}, err
	}

	res, err := s.gateway.Initialize(ctx, gateway.InitRequest{
		Email:       email,
		Amount:      minor,
		Currency:    s.cfg.Currency,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
	})
	if err != nil {
		s.log.FromContext(ctx).Warn("gateway initialize failed",
			zap.String("reference", reference), zap.Error(err))
		return InitiateResult{Reference: reference}, fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
	}

	return InitiateResult{Reference: reference, AuthorizationURL: res.Data.AuthorizationURL}, nil
}

type DonationView struct {
	Reference string          `json:"reference"`
	Status    donation.Status `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// DonationStatus is the donor-facing view. It never exposes failure reasons.
func (s *DonationService) DonationStatus(ctx context.Context, reference string) (DonationView, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return DonationView{}, apperrors.ErrInvalidInput
	}
	d, err := s.donations.GetByReference(ctx, reference)
	if err != nil {
		return DonationView{}, err
	}
	return DonationView{
		Reference: d.Reference,
		Status:    d.Status,
		Amount:    d.Amount,
		Currency:  d.Currency,
	}, nil
}

func (s *DonationService) ListDonations(ctx context.Context, page, limit int) ([]donation.Donation, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.donations.List(ctx, page, limit)
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Reference string                `json:"reference"`
		ID        gateway.TransactionID `json:"id"`
	} `json:"data"`
}

// ProcessWebhookNotification authenticates and applies one gateway delivery
// and returns the HTTP status to answer with. Unauthenticated or malformed
// input always gets 400. After authentication only genuine processing
// errors return 500 so the gateway retries.
func (s *DonationService) ProcessWebhookNotification(ctx context.Context, rawBody []byte, signature string) (status int) {
	log := s.log.FromContext(ctx)

	if strings.TrimSpace(signature) == "" {
		s.metrics.ObserveWebhook(outcomeMissingSignature)
		log.Warn("webhook rejected: missing signature")
		return http.StatusBadRequest
	}
	if !gateway.VerifySignature(s.cfg.SecretKey, rawBody, signature) {
		s.metrics.ObserveWebhook(outcomeBadSignature)
		log.Warn("webhook rejected: signature mismatch")
		return http.StatusBadRequest
	}

	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		s.metrics.ObserveWebhook(outcomeMalformed)
		log.Warn("webhook rejected: malformed body", zap.Error(err))
		return http.StatusBadRequest
	}

	reference := strings.TrimSpace(payload.Data.Reference)
	audit := s.recordReceived(ctx, payload.Event, reference, rawBody)

	outcome := webhook.OutcomeRetry
	var procErr error
	defer func() {
		if r := recover(); r != nil {
			procErr = fmt.Errorf("panic: %v", r)
			outcome = webhook.OutcomeRetry
			status = http.StatusInternalServerError
			log.Error("webhook processing panicked", zap.String("reference", reference), zap.Any("panic", r))
		}
		s.metrics.ObserveWebhook(string(outcome))
		s.markProcessed(ctx, audit, outcome, procErr)
	}()

	status, outcome, procErr = s.reconcile(ctx, payload.Event, reference)
	if procErr != nil {
		log.Error("webhook processing failed",
			zap.String("reference", reference),
			zap.String("outcome", string(outcome)),
			zap.Error(procErr))
	}
	return status
}

func (s *DonationService) reconcile(ctx context.Context, event, reference string) (int, webhook.Outcome, error) {
	log := s.log.FromContext(ctx).With(zap.String("reference", reference))

	if event != EventChargeSuccess {
		return http.StatusOK, webhook.OutcomeIgnored, nil
	}
	if reference == "" {
		return http.StatusOK, webhook.OutcomeUnknownReference, nil
	}

	d, err := s.donations.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Info("webhook for unknown reference acknowledged")
			return http.StatusOK, webhook.OutcomeUnknownReference, nil
		}
		return http.StatusInternalServerError, webhook.OutcomeRetry, err
	}
	if d.Status.IsTerminal() {
		return http.StatusOK, webhook.OutcomeAlreadyProcessed, nil
	}

	if s.locker != nil {
		ok, release, err := s.locker.TryLock(ctx, "donation:"+reference)
		if err != nil {
			return http.StatusInternalServerError, webhook.OutcomeRetry, err
		}
		if !ok {
			return http.StatusInternalServerError, webhook.OutcomeRetry, apperrors.ErrLockHeld
		}
		defer func() {
			if err := release(); err != nil {
				log.Warn("webhook lock release failed", zap.Error(err))
			}
		}()
	}

	started := time.Now()
	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.metrics.ObserveVerify("error", started)
		return http.StatusInternalServerError, webhook.OutcomeRetry, err
	}
	s.metrics.ObserveVerify("ok", started)

	if !verification.Successful() {
		err := s.transition(ctx, d, donation.Transition{
			To:            donation.StatusFailed,
			FailureReason: donation.ReasonGatewayDeclined,
		})
		return s.afterTransition(log, err, webhook.OutcomeDeclined)
	}

	expected, err := donation.ToMinorUnits(d.Amount)
	if err != nil {
		return http.StatusInternalServerError, webhook.OutcomeRetry, err
	}

	var reason donation.FailureReason
	switch {
	case verification.Data.Amount != expected:
		reason = donation.ReasonAmountMismatch
	case verification.Data.Currency != d.Currency:
		reason = donation.ReasonCurrencyMismatch
	}
	if reason != donation.ReasonNone {
		s.log.Critical(ctx, "donation integrity check failed",
			zap.String("reference", reference),
			zap.String("reason", string(reason)),
			zap.Int64("expected_amount", expected),
			zap.Int64("verified_amount", verification.Data.Amount),
			zap.String("expected_currency", d.Currency),
			zap.String("verified_currency", verification.Data.Currency))
		err := s.transition(ctx, d, donation.Transition{
			To:            donation.StatusFailed,
			FailureReason: reason,
		})
		return s.afterTransition(log, err, webhook.OutcomeIntegrityFailure)
	}

	err = s.transition(ctx, d, donation.Transition{
		To:               donation.StatusSuccess,
		Verified:         true,
		GatewayReference: string(verification.Data.ID),
	})
	if err == nil {
		log.Info("donation confirmed", zap.String("gateway_reference", string(verification.Data.ID)))
	}
	return s.afterTransition(log, err, webhook.OutcomeSucceeded)
}

func (s *DonationService) transition(ctx context.Context, d donation.Donation, t donation.Transition) error {
	return s.donations.TransitionStatus(ctx, d.Reference, donation.StatusPending, t)
}

// afterTransition treats a lost compare-and-swap as an already processed
// delivery: another worker settled the donation first.
func (s *DonationService) afterTransition(log *zap.Logger, err error, outcome webhook.Outcome) (int, webhook.Outcome, error) {
	switch {
	case err == nil:
		return http.StatusOK, outcome, nil
	case errors.Is(err, apperrors.ErrInvalidTransition):
		log.Info("donation already settled by a concurrent delivery")
		return http.StatusOK, webhook.OutcomeAlreadyProcessed, nil
	default:
		return http.StatusInternalServerError, webhook.OutcomeRetry, err
	}
}

func (s *DonationService) recordReceived(ctx context.Context, event, reference string, rawBody []byte) *webhook.Event {
	if s.events == nil {
		return nil
	}
	e := &webhook.Event{
		ID:             uuid.New(),
		Provider:       webhookProvider,
		EventType:      event,
		Reference:      reference,
		SignatureValid: true,
		Payload:        string(rawBody),
		Outcome:        webhook.OutcomeReceived,
		ReceivedAt:     time.Now().UTC(),
	}
	if err := s.events.Create(ctx, e); err != nil {
		s.log.FromContext(ctx).Warn("failed to record webhook event", zap.Error(err))
		return nil
	}
	return e
}

func (s *DonationService) markProcessed(ctx context.Context, e *webhook.Event, outcome webhook.Outcome, procErr error) {
	if e == nil {
		return
	}
	msg := ""
	if procErr != nil {
		msg = procErr.Error()
	}
	if err := s.events.MarkProcessed(ctx, e.ID, outcome, msg); err != nil {
		s.log.FromContext(ctx).Warn("failed to update webhook event", zap.Error(err))
	}
}
