package reservation

import (
	"errors"
	"fmt"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrValidation        = domain.ErrValidation
	ErrForbidden         = domain.ErrForbidden
	ErrNotFound          = fmt.Errorf("reservation %w", domain.ErrNotFound)
	ErrRoomTypeNotFound  = fmt.Errorf("room type %w", domain.ErrNotFound)
	ErrGuestNotFound     = fmt.Errorf("guest %w", domain.ErrNotFound)
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrCapacityExceeded  = domain.ErrCapacityExceeded
)

func invalidTransition(from, to domain.ReservationStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
