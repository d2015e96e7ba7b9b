package inventory

import (
	"fmt"

	"hotelbooking/internal/domain"
)

var (
	ErrCapacityExceeded   = domain.ErrCapacityExceeded
	ErrInvariantViolation = domain.ErrInvariantViolation
	ErrUnknownRoomType    = fmt.Errorf("room type %w", domain.ErrNotFound)
)
