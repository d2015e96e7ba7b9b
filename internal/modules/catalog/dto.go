package catalog

import "hotelbooking/internal/modules/inventory"

// ---------- ROOM TYPES ----------

type RoomTypeRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Description   string  `json:"description"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
	TotalRooms    int     `json:"total_rooms" validate:"gte=0"`
}

// ---------- AVAILABILITY ----------

type AvailabilityQuery struct {
	CheckIn  string `form:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" validate:"required,datetime=2006-01-02"`
}

type AvailabilityResponse struct {
	RoomTypeID int64                  `json:"room_type_id"`
	CheckIn    string                 `json:"check_in"`
	CheckOut   string                 `json:"check_out"`
	Available  int                    `json:"available"`
	Nights     []inventory.NightUsage `json:"nights"`
}
