package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) WithTx(tx *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: tx}
}

type reservationModel struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	Reference    string     `gorm:"column:reference;type:varchar(36);not null;uniqueIndex"`
	RoomTypeID   int64      `gorm:"column:room_type_id;not null;index:idx_reservations_room_dates,priority:1"`
	GuestID      int64      `gorm:"column:guest_id;not null;index"`
	CheckIn      string     `gorm:"column:check_in;type:varchar(10);not null;index:idx_reservations_room_dates,priority:2"`
	CheckOut     string     `gorm:"column:check_out;type:varchar(10);not null"`
	Nights       int        `gorm:"column:nights;not null"`
	TotalPrice   float64    `gorm:"column:total_price;not null"`
	Status       string     `gorm:"column:status;type:varchar(16);not null;index"`
	CancelReason *string    `gorm:"column:cancel_reason;size:64"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func toDomainReservation(m reservationModel) *domain.Reservation {
	var reason string
	if m.CancelReason != nil {
		reason = *m.CancelReason
	}
	checkIn, _ := time.Parse(domain.DateLayout, m.CheckIn)
	checkOut, _ := time.Parse(domain.DateLayout, m.CheckOut)

	return &domain.Reservation{
		ID:           m.ID,
		Reference:    m.Reference,
		RoomTypeID:   m.RoomTypeID,
		GuestID:      m.GuestID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Nights:       m.Nights,
		TotalPrice:   m.TotalPrice,
		Status:       domain.ReservationStatus(m.Status),
		CancelReason: reason,
		ConfirmedAt:  m.ConfirmedAt,
		CancelledAt:  m.CancelledAt,
		CompletedAt:  m.CompletedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toReservationModel(res *domain.Reservation) reservationModel {
	var reason *string
	if res.CancelReason != "" {
		v := res.CancelReason
		reason = &v
	}

	return reservationModel{
		ID:           res.ID,
		Reference:    res.Reference,
		RoomTypeID:   res.RoomTypeID,
		GuestID:      res.GuestID,
		CheckIn:      domain.FormatDate(res.CheckIn),
		CheckOut:     domain.FormatDate(res.CheckOut),
		Nights:       res.Nights,
		TotalPrice:   res.TotalPrice,
		Status:       string(res.Status),
		CancelReason: reason,
		ConfirmedAt:  res.ConfirmedAt,
		CancelledAt:  res.CancelledAt,
		CompletedAt:  res.CompletedAt,
		CreatedAt:    res.CreatedAt,
		UpdatedAt:    res.UpdatedAt,
	}
}

type ReservationFilter struct {
	Status     domain.ReservationStatus
	RoomTypeID int64
	GuestID    int64
	Limit      int
	Offset     int
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	m := toReservationModel(res)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*res = *toDomainReservation(m)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var m reservationModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainReservation(m), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	var m reservationModel
	tx := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainReservation(m), nil
}

func (r *ReservationRepository) List(ctx context.Context, f ReservationFilter) ([]domain.Reservation, error) {
	q := r.db.WithContext(ctx).Model(&reservationModel{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.RoomTypeID > 0 {
		q = q.Where("room_type_id = ?", f.RoomTypeID)
	}
	if f.GuestID > 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var rows []reservationModel
	if err := q.Order("check_in DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainReservations(rows), nil
}

// TransitionStatus moves a reservation from one status to another only if it
// is still in the expected status. It reports whether a row was changed.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id int64, from, to domain.ReservationStatus, reason string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     string(to),
		"updated_at": at,
	}
	switch to {
	case domain.ReservationConfirmed:
		updates["confirmed_at"] = at
	case domain.ReservationCancelled:
		updates["cancelled_at"] = at
		updates["cancel_reason"] = reason
	case domain.ReservationCompleted:
		updates["completed_at"] = at
	}

	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// ListExpiredPending returns pending reservations whose payment window closed
// before now, whatever state the payment row is in, ordered by id and
// starting after afterID.
func (r *ReservationRepository) ListExpiredPending(ctx context.Context, now time.Time, afterID int64, limit int) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Joins("JOIN payments ON payments.reservation_id = reservations.id").
		Where("reservations.status = ?", string(domain.ReservationPending)).
		Where("payments.expires_at < ?", now.UTC()).
		Where("reservations.id > ?", afterID).
		Order("reservations.id ASC").
		Limit(limit).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainReservations(rows), nil
}

// ListCompletable returns confirmed reservations whose check-out date is on
// or before today, ordered by id and starting after afterID.
func (r *ReservationRepository) ListCompletable(ctx context.Context, today string, afterID int64, limit int) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND check_out <= ? AND id > ?", string(domain.ReservationConfirmed), today, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainReservations(rows), nil
}

func (r *ReservationRepository) ListByGuests(ctx context.Context, guestIDs []int64) ([]domain.Reservation, error) {
	if len(guestIDs) == 0 {
		return nil, nil
	}
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("guest_id IN ?", guestIDs).
		Order("id ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainReservations(rows), nil
}

func (r *ReservationRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&reservationModel{})
	return tx.RowsAffected, tx.Error
}

func (r *ReservationRepository) CountByStatus(ctx context.Context) (map[domain.ReservationStatus]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make(map[domain.ReservationStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ReservationStatus(row.Status)] = row.Total
	}
	return out, nil
}

func toDomainReservations(rows []reservationModel) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out
}

// CountByGuest groups one guest's reservations by status.
func (r *ReservationRepository) CountByGuest(ctx context.Context, guestID int64) (map[domain.ReservationStatus]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	tx := r.db.WithContext(ctx).
		Model(&reservationModel{}).
		Select("status, COUNT(*) AS total").
		Where("guest_id = ?", guestID).
		Group("status").
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make(map[domain.ReservationStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.ReservationStatus(row.Status)] = row.Total
	}
	return out, nil
}
