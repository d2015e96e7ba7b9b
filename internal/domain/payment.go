package domain

import "time"

type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "PENDING"
	PaymentPaid           PaymentStatus = "PAID"
	PaymentFailed         PaymentStatus = "FAILED"
	PaymentRefundRequired PaymentStatus = "REFUND_REQUIRED"
)

// Payment mirrors the payment provider's state for one reservation.
type Payment struct {
	ID            int64         `json:"id"`
	ReservationID int64         `json:"reservation_id"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	ProviderRef   string        `json:"provider_ref,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	RawPayload    string        `json:"-"`
	ExpiresAt     time.Time     `json:"expires_at"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
