package reservation

import (
	"context"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

// Inventory is the ledger surface the state machine needs.
type Inventory interface {
	AvailableUnits(ctx context.Context, db *gorm.DB, roomTypeID int64, stay domain.Stay) (int, error)
	Reserve(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay, delta int) error
	Release(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error
}

// Admitter runs fn with the stay's inventory locked.
type Admitter interface {
	Admit(ctx context.Context, roomTypeID int64, stay domain.Stay, fn func(ctx context.Context, tx *gorm.DB) error) error
}
