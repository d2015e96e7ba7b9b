package domain

import "time"

type NotificationType string

const (
	NotifReservationCreated   NotificationType = "reservation_created"
	NotifReservationConfirmed NotificationType = "reservation_confirmed"
	NotifReservationCancelled NotificationType = "reservation_cancelled"
	NotifReservationCompleted NotificationType = "reservation_completed"
)

// Notification is an in-app message to a guest about one of their
// reservations.
type Notification struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message,omitempty"`
	ReservationID int64            `json:"reservation_id,omitempty"`
	IsRead        bool             `json:"is_read"`
	CreatedAt     time.Time        `json:"created_at"`
}
