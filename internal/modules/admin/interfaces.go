package admin

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/pkg/jwt"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// Ledger is the inventory surface used for purging and reporting.
type Ledger interface {
	Lock(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error
	Release(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error
	Snapshot(ctx context.Context, db *gorm.DB, roomTypeID int64, stay domain.Stay) ([]inventory.NightUsage, error)
	CommittedOn(ctx context.Context, db *gorm.DB, night string) (int64, error)
	TotalCommitted(ctx context.Context, db *gorm.DB, from time.Time) (int64, error)
}

// ExclusiveRunner runs fn in one transaction whose lock waits are bounded.
type ExclusiveRunner interface {
	Exclusive(ctx context.Context, name string, fn func(ctx context.Context, tx *gorm.DB) error) error
}

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type FeedHub interface {
	ServeWS(conn *websocket.Conn, userID int64)
}
