package admin

import (
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/inventory"
)

// PurgeOptions controls PurgeGuests. Confirm must be set explicitly.
type PurgeOptions struct {
	Confirm      bool
	IncludeStaff bool
}

type PurgeResult struct {
	Users                int64 `json:"users"`
	Reservations         int64 `json:"reservations"`
	Payments             int64 `json:"payments"`
	Notifications        int64 `json:"notifications"`
	ReleasedReservations int64 `json:"released_reservations"`
}

type Dashboard struct {
	ReservationsByStatus map[domain.ReservationStatus]int64 `json:"reservations_by_status"`
	UsersByRole          map[domain.UserRole]int64          `json:"users_by_role"`
	RoomTypes            int64                              `json:"room_types"`
	TotalRooms           int64                              `json:"total_rooms"`
	OccupiedTonight      int64                              `json:"occupied_tonight"`
	OccupancyRate        float64                            `json:"occupancy_rate"`
	UpcomingRoomNights   int64                              `json:"upcoming_room_nights"`
	GeneratedAt          time.Time                          `json:"generated_at"`
}

type LedgerQuery struct {
	From string `form:"from" binding:"required" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required" validate:"required,datetime=2006-01-02"`
}

type LedgerSnapshot struct {
	RoomTypeID int64                  `json:"room_type_id"`
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Nights     []inventory.NightUsage `json:"nights"`
}

type PurgeQuery struct {
	Confirm      bool `form:"confirm"`
	IncludeStaff bool `form:"include_staff"`
}
