package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCancelled, ReservationCompleted},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

// HoldsInventory reports whether a reservation in this status owns its
// nights in the inventory ledger.
func (s ReservationStatus) HoldsInventory() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

const (
	CancelReasonGuest          = "guest_request"
	CancelReasonStaff          = "staff_request"
	CancelReasonPaymentTimeout = "payment_timeout"
	CancelReasonPaymentFailed  = "payment_failed"
	CancelReasonAccountPurged  = "account_purged"
)

type Reservation struct {
	ID           int64             `json:"id"`
	Reference    string            `json:"reference"`
	RoomTypeID   int64             `json:"room_type_id"`
	GuestID      int64             `json:"guest_id"`
	CheckIn      time.Time         `json:"check_in"`
	CheckOut     time.Time         `json:"check_out"`
	Nights       int               `json:"nights"`
	TotalPrice   float64           `json:"total_price"`
	Status       ReservationStatus `json:"status"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (r *Reservation) Stay() Stay {
	return Stay{CheckIn: DateOf(r.CheckIn), CheckOut: DateOf(r.CheckOut)}
}
