package payment

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
)

type paymentRepo interface {
	GetByReservationID(ctx context.Context, reservationID int64) (*domain.Payment, error)
	MarkPaidIdempotent(ctx context.Context, reservationID int64, providerRef, rawBody string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, reservationID int64, reason, rawBody string) error
	MarkRefundRequired(ctx context.Context, reservationID int64, reason string) error
}

// reservationLifecycle is the part of the reservation service a payment
// signal drives.
type reservationLifecycle interface {
	Confirm(ctx context.Context, id int64) (*domain.Reservation, error)
	CancelPending(ctx context.Context, id int64, reason string) (*domain.Reservation, error)
}
