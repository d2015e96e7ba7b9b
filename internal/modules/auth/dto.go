package auth

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserPublic struct {
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=255"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// UserStats counts the guest's reservations by outcome.
type UserStats struct {
	TotalReservations     int64 `json:"total_reservations"`
	ActiveReservations    int64 `json:"active_reservations"`
	CompletedReservations int64 `json:"completed_reservations"`
	CancelledReservations int64 `json:"cancelled_reservations"`
}

type UserProfileResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	CreatedAt string     `json:"created_at"`
	Stats     *UserStats `json:"stats,omitempty"`
}
