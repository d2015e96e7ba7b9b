package auth

import (
	"context"

	"hotelbooking/internal/domain"
)

// UserRepositoryInterface lists the methods the auth service uses.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) (*domain.User, error)
}

// ReservationStatsReader is implemented by the reservation repository.
type ReservationStatsReader interface {
	CountByGuest(ctx context.Context, guestID int64) (map[domain.ReservationStatus]int64, error)
}

type jwtService interface {
	GenerateToken(userID int64, role domain.UserRole) (string, error)
}
