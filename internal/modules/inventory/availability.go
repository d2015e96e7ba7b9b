package inventory

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

// AvailableUnits is the number of rooms of the type that are free on every
// night of the stay: total rooms minus the busiest night's commitments.
// It does not lock anything.
func (l *Ledger) AvailableUnits(ctx context.Context, db *gorm.DB, roomTypeID int64, stay domain.Stay) (int, error) {
	total, err := totalRooms(ctx, db, roomTypeID)
	if err != nil {
		return 0, err
	}

	peak, err := l.peakCommitted(ctx, db, roomTypeID, stay.FirstNight(), stay.LastNight())
	if err != nil {
		return 0, err
	}
	if peak > total {
		return 0, l.violation(roomTypeID, stay, fmt.Sprintf("committed %d exceeds total %d", peak, total))
	}
	return total - peak, nil
}

// PeakCommitted returns the highest commitment on any night of the room
// type, past nights included.
func (l *Ledger) PeakCommitted(ctx context.Context, db *gorm.DB, roomTypeID int64) (int, error) {
	return l.peakCommitted(ctx, db, roomTypeID, "", "")
}

func (l *Ledger) peakCommitted(ctx context.Context, db *gorm.DB, roomTypeID int64, from, to string) (int, error) {
	q := db.WithContext(ctx).
		Model(&ledgerRow{}).
		Select("COALESCE(MAX(committed), 0)").
		Where("room_type_id = ?", roomTypeID)
	if from != "" {
		q = q.Where("stay_date >= ?", from)
	}
	if to != "" {
		q = q.Where("stay_date <= ?", to)
	}

	var peak int
	if err := q.Scan(&peak).Error; err != nil {
		return 0, fmt.Errorf("read peak commitment: %w", err)
	}
	return peak, nil
}

type NightUsage struct {
	Date      string `json:"date"`
	Committed int    `json:"committed"`
	Available int    `json:"available"`
}

// Snapshot reports per-night usage of a room type for every night of the
// range, including nights that were never booked.
func (l *Ledger) Snapshot(ctx context.Context, db *gorm.DB, roomTypeID int64, stay domain.Stay) ([]NightUsage, error) {
	total, err := totalRooms(ctx, db, roomTypeID)
	if err != nil {
		return nil, err
	}

	var rows []ledgerRow
	err = db.WithContext(ctx).
		Where("room_type_id = ? AND stay_date >= ? AND stay_date <= ?", roomTypeID, stay.FirstNight(), stay.LastNight()).
		Order("stay_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	byDate := make(map[string]int, len(rows))
	for _, r := range rows {
		byDate[r.StayDate] = r.Committed
	}

	out := make([]NightUsage, 0, stay.Nights())
	for _, d := range stay.Dates() {
		c := byDate[d]
		out = append(out, NightUsage{Date: d, Committed: c, Available: total - c})
	}
	return out, nil
}

// TotalCommitted sums commitments over all nights on or after the date.
func (l *Ledger) TotalCommitted(ctx context.Context, db *gorm.DB, from time.Time) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).
		Model(&ledgerRow{}).
		Select("COALESCE(SUM(committed), 0)").
		Where("stay_date >= ?", domain.FormatDate(from)).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum commitments: %w", err)
	}
	return sum, nil
}

// CommittedOn sums commitments across all room types for one night.
func (l *Ledger) CommittedOn(ctx context.Context, db *gorm.DB, night string) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).
		Model(&ledgerRow{}).
		Select("COALESCE(SUM(committed), 0)").
		Where("stay_date = ?", night).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum night commitments: %w", err)
	}
	return sum, nil
}
