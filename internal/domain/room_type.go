package domain

import "time"

// RoomType is a bookable category. TotalRooms is the hard capacity ceiling
// for every night.
type RoomType struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name" validate:"required,max=120"`
	Description   string    `json:"description"`
	PricePerNight float64   `json:"price_per_night" validate:"gte=0"`
	TotalRooms    int       `json:"total_rooms" validate:"gte=0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
