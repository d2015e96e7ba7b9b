package database

import (
	"fmt"

	"gorm.io/gorm"

	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/repository"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate repositories: %w", err)
	}
	if err := inventory.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate inventory ledger: %w", err)
	}
	return nil
}
