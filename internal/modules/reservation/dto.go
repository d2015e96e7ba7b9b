package reservation

// CreateReservationRequest books one room of a type for [check_in, check_out).
// GuestID is only honoured for staff booking on behalf of a guest.
type CreateReservationRequest struct {
	RoomTypeID int64  `json:"room_type_id" binding:"required" validate:"required,gt=0"`
	GuestID    int64  `json:"guest_id" validate:"gte=0"`
	CheckIn    string `json:"check_in" binding:"required" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" binding:"required" validate:"required,datetime=2006-01-02"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

type ListQuery struct {
	Status     string `form:"status"`
	RoomTypeID int64  `form:"room_type_id"`
	GuestID    int64  `form:"guest_id"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}
