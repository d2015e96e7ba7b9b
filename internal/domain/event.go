package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCompleted EventType = "reservation.completed"
)

// ReservationEvent is published after a lifecycle change has been committed.
type ReservationEvent struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	ReservationID int64             `json:"reservation_id"`
	Reference     string            `json:"reference"`
	RoomTypeID    int64             `json:"room_type_id"`
	GuestID       int64             `json:"guest_id"`
	CheckIn       string            `json:"check_in"`
	CheckOut      string            `json:"check_out"`
	Status        ReservationStatus `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewReservationEvent(t EventType, r *Reservation) ReservationEvent {
	return ReservationEvent{
		ID:            uuid.NewString(),
		Type:          t,
		ReservationID: r.ID,
		Reference:     r.Reference,
		RoomTypeID:    r.RoomTypeID,
		GuestID:       r.GuestID,
		CheckIn:       FormatDate(r.CheckIn),
		CheckOut:      FormatDate(r.CheckOut),
		Status:        r.Status,
		Reason:        r.CancelReason,
		OccurredAt:    time.Now().UTC(),
	}
}
