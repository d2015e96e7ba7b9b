package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidSignature = fmt.Errorf("%w: invalid signature", domain.ErrForbidden)
	ErrAmountMismatch   = fmt.Errorf("%w: amount mismatch", domain.ErrValidation)
	ErrInvalidPayload   = fmt.Errorf("%w: invalid webhook payload", domain.ErrValidation)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", domain.ErrNotFound)
)

type Service struct {
	payments     paymentRepo
	reservations reservationLifecycle
	secret       []byte
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewService(payments paymentRepo, reservations reservationLifecycle, secret string, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		payments:     payments,
		reservations: reservations,
		secret:       []byte(secret),
		log:          log,
		now:          time.Now,
	}
}

// HandleWebhook applies a signed provider notification. Deliveries are
// at-least-once, so every branch is safe to repeat.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	if !s.validSignature(rawBody, signature) {
		s.log.Warn("payment webhook rejected: bad signature")
		return nil, ErrInvalidSignature
	}

	var ev WebhookEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, ErrInvalidPayload
	}
	if errs := validator.Validate(ev); errs != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, errs)
	}

	log := s.log.WithFields(logrus.Fields{
		"reservation_id": ev.ReservationID,
		"outcome":        ev.Outcome,
		"provider_ref":   ev.ProviderRef,
	})

	p, err := s.payments.GetByReservationID(ctx, ev.ReservationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	// A mismatched amount settles nothing. The payment stays open and the
	// reservation is released by the payment timeout sweep if no valid
	// signal follows.
	if !amountEqual(ev.Amount, fmt.Sprintf("%.2f", p.Amount)) {
		log.WithFields(logrus.Fields{
			"expected": p.Amount,
			"received": ev.Amount,
		}).Error("payment webhook amount mismatch")
		return nil, ErrAmountMismatch
	}

	if ev.Outcome == OutcomeFailed {
		if p.Status == domain.PaymentPaid || p.Status == domain.PaymentRefundRequired {
			log.WithField("payment_status", p.Status).Warn("failure signal for settled payment ignored")
			return &WebhookResult{
				ReservationID:    ev.ReservationID,
				PaymentStatus:    string(p.Status),
				AlreadyProcessed: true,
			}, nil
		}
		return s.applyFailure(ctx, log, ev, string(rawBody))
	}
	return s.applySuccess(ctx, log, ev, string(rawBody))
}

func (s *Service) applySuccess(ctx context.Context, log logrus.FieldLogger, ev WebhookEvent, rawBody string) (*WebhookResult, error) {
	changed, err := s.payments.MarkPaidIdempotent(ctx, ev.ReservationID, ev.ProviderRef, rawBody, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !changed {
		log.Info("idempotent webhook: payment already settled")
	}

	res, err := s.reservations.Confirm(ctx, ev.ReservationID)
	if err != nil {
		return nil, err
	}

	out := &WebhookResult{
		ReservationID:     res.ID,
		ReservationStatus: string(res.Status),
		PaymentStatus:     string(domain.PaymentPaid),
		AlreadyProcessed:  !changed,
	}

	// Money arrived for a stay that no longer holds a room.
	if res.Status == domain.ReservationCancelled {
		if err := s.payments.MarkRefundRequired(ctx, ev.ReservationID, "paid after cancellation"); err != nil {
			return nil, err
		}
		log.Warn("payment received for cancelled reservation, refund required")
		out.PaymentStatus = string(domain.PaymentRefundRequired)
		out.RefundRequired = true
	}
	return out, nil
}

func (s *Service) applyFailure(ctx context.Context, log logrus.FieldLogger, ev WebhookEvent, rawBody string) (*WebhookResult, error) {
	reason := ev.Reason
	if reason == "" {
		reason = "declined by provider"
	}
	if err := s.payments.MarkFailed(ctx, ev.ReservationID, reason, rawBody); err != nil {
		return nil, err
	}

	// Only an unpaid hold is released. A stay staff already confirmed, e.g.
	// paid at the desk, is kept.
	res, err := s.reservations.CancelPending(ctx, ev.ReservationID, domain.CancelReasonPaymentFailed)
	if err != nil {
		return nil, err
	}

	p, err := s.payments.GetByReservationID(ctx, ev.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.ReservationCancelled {
		log.WithField("reason", reason).Info("payment failed, reservation released")
	} else {
		log.WithFields(logrus.Fields{
			"reason":             reason,
			"reservation_status": res.Status,
		}).Warn("payment failed for a reservation that is no longer pending, kept as is")
	}
	return &WebhookResult{
		ReservationID:     res.ID,
		ReservationStatus: string(res.Status),
		PaymentStatus:     string(p.Status),
	}, nil
}

// Sign returns the hex HMAC-SHA256 of body under secret, as expected in the
// X-Signature header.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) validSignature(body []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(s.secret, body))
	return hmac.Equal(got, want)
}

func amountEqual(a, b string) bool {
	ar, ok := new(big.Rat).SetString(strings.TrimSpace(a))
	if !ok {
		return false
	}
	br, ok := new(big.Rat).SetString(strings.TrimSpace(b))
	if !ok {
		return false
	}
	return ar.Cmp(br) == 0
}
