package inventory

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerRow is one (room type, night) commitment counter. Nothing outside
// this package writes the inventory_ledger table.
type ledgerRow struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	RoomTypeID int64     `gorm:"column:room_type_id;not null;uniqueIndex:idx_ledger_room_date,priority:1"`
	StayDate   string    `gorm:"column:stay_date;type:varchar(10);not null;uniqueIndex:idx_ledger_room_date,priority:2"`
	Committed  int       `gorm:"column:committed;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (ledgerRow) TableName() string { return "inventory_ledger" }

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ledgerRow{})
}

// Ledger tracks committed room-nights per room type. Every method takes the
// caller's transaction; nothing here commits on its own.
type Ledger struct {
	log logrus.FieldLogger
}

func NewLedger(log logrus.FieldLogger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{log: log}
}

// Lock materialises the ledger rows of every night in the stay and locks
// them for the rest of the transaction. Rows are always taken in date order.
func (l *Ledger) Lock(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error {
	dates := stay.Dates()
	fresh := make([]ledgerRow, 0, len(dates))
	now := time.Now().UTC()
	for _, d := range dates {
		fresh = append(fresh, ledgerRow{RoomTypeID: roomTypeID, StayDate: d, Committed: 0, UpdatedAt: now})
	}

	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fresh).Error; err != nil {
		return fmt.Errorf("materialise ledger rows: %w", err)
	}

	locked, err := l.lockedRows(ctx, tx, roomTypeID, stay)
	if err != nil {
		return err
	}
	if len(locked) != len(dates) {
		return l.violation(roomTypeID, stay, fmt.Sprintf("locked %d of %d nights", len(locked), len(dates)))
	}
	return nil
}

// Reserve adds delta to every night of the stay, or changes nothing and
// returns ErrCapacityExceeded if any night would go above the room type's
// total room count.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay, delta int) error {
	if delta <= 0 {
		return l.violation(roomTypeID, stay, fmt.Sprintf("reserve delta must be positive, got %d", delta))
	}
	return l.adjust(ctx, tx, roomTypeID, stay, delta)
}

// Release gives back one unit on every night of the stay. Every night must
// currently be held.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error {
	return l.adjust(ctx, tx, roomTypeID, stay, -1)
}

func (l *Ledger) adjust(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay, delta int) error {
	total, err := totalRooms(ctx, tx, roomTypeID)
	if err != nil {
		return err
	}

	rows, err := l.lockedRows(ctx, tx, roomTypeID, stay)
	if err != nil {
		return err
	}
	byDate := make(map[string]ledgerRow, len(rows))
	for _, r := range rows {
		byDate[r.StayDate] = r
	}

	existing := make([]string, 0, len(rows))
	missing := make([]string, 0)
	for _, d := range stay.Dates() {
		row, ok := byDate[d]
		next := row.Committed + delta
		switch {
		case next < 0:
			return l.violation(roomTypeID, stay, fmt.Sprintf("night %s is not held", d))
		case delta > 0 && next > total:
			return fmt.Errorf("%w: room type %d on %s (%d of %d committed)", ErrCapacityExceeded, roomTypeID, d, row.Committed, total)
		}
		if ok {
			existing = append(existing, d)
		} else {
			missing = append(missing, d)
		}
	}

	now := time.Now().UTC()
	if len(existing) > 0 {
		res := tx.WithContext(ctx).
			Model(&ledgerRow{}).
			Where("room_type_id = ? AND stay_date IN ?", roomTypeID, existing).
			Updates(map[string]any{
				"committed":  gorm.Expr("committed + ?", delta),
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("update ledger: %w", res.Error)
		}
		if res.RowsAffected != int64(len(existing)) {
			return l.violation(roomTypeID, stay, fmt.Sprintf("updated %d of %d nights", res.RowsAffected, len(existing)))
		}
	}
	if len(missing) > 0 {
		fresh := make([]ledgerRow, 0, len(missing))
		for _, d := range missing {
			fresh = append(fresh, ledgerRow{RoomTypeID: roomTypeID, StayDate: d, Committed: delta, UpdatedAt: now})
		}
		if err := tx.WithContext(ctx).Create(&fresh).Error; err != nil {
			return fmt.Errorf("insert ledger rows: %w", err)
		}
	}
	return nil
}

func (l *Ledger) lockedRows(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) ([]ledgerRow, error) {
	var rows []ledgerRow
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_type_id = ? AND stay_date >= ? AND stay_date <= ?", roomTypeID, stay.FirstNight(), stay.LastNight()).
		Order("stay_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("lock ledger rows: %w", err)
	}
	return rows, nil
}

func (l *Ledger) violation(roomTypeID int64, stay domain.Stay, detail string) error {
	l.log.WithFields(logrus.Fields{
		"room_type_id": roomTypeID,
		"check_in":     stay.FirstNight(),
		"last_night":   stay.LastNight(),
	}).Error("inventory invariant violation: " + detail)
	return fmt.Errorf("%w: %s", ErrInvariantViolation, detail)
}

type capacityRow struct {
	TotalRooms int
}

// totalRooms reads the capacity ceiling under a shared lock so that an
// administrative shrink cannot interleave with a reservation.
func totalRooms(ctx context.Context, tx *gorm.DB, roomTypeID int64) (int, error) {
	var rows []capacityRow
	err := tx.WithContext(ctx).
		Table("room_types").
		Select("total_rooms").
		Where("id = ?", roomTypeID).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("read room capacity: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRoomType, roomTypeID)
	}
	return rows[0].TotalRooms, nil
}
