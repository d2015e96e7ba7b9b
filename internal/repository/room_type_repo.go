package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomTypeRepository struct {
	db *gorm.DB
}

func NewRoomTypeRepository(db *gorm.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: db}
}

func (r *RoomTypeRepository) WithTx(tx *gorm.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: tx}
}

type roomTypeModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name;size:120;not null;uniqueIndex"`
	Description   string    `gorm:"column:description;type:text"`
	PricePerNight float64   `gorm:"column:price_per_night;not null;index"`
	TotalRooms    int       `gorm:"column:total_rooms;not null"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (roomTypeModel) TableName() string { return "room_types" }

func toDomainRoomType(m roomTypeModel) *domain.RoomType {
	return &domain.RoomType{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		PricePerNight: m.PricePerNight,
		TotalRooms:    m.TotalRooms,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toRoomTypeModel(rt *domain.RoomType) roomTypeModel {
	return roomTypeModel{
		ID:            rt.ID,
		Name:          rt.Name,
		Description:   rt.Description,
		PricePerNight: rt.PricePerNight,
		TotalRooms:    rt.TotalRooms,
		CreatedAt:     rt.CreatedAt,
		UpdatedAt:     rt.UpdatedAt,
	}
}

// ListOrderedByPrice returns every room type, cheapest first. Equal prices
// keep insertion order.
func (r *RoomTypeRepository) ListOrderedByPrice(ctx context.Context) ([]domain.RoomType, error) {
	var rows []roomTypeModel
	tx := r.db.WithContext(ctx).
		Order("price_per_night ASC").
		Order("id ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.RoomType, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoomType(m))
	}
	return out, nil
}

func (r *RoomTypeRepository) GetByID(ctx context.Context, id int64) (*domain.RoomType, error) {
	var m roomTypeModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainRoomType(m), nil
}

// GetByIDForUpdate locks the row exclusively until the surrounding
// transaction ends.
func (r *RoomTypeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.RoomType, error) {
	var m roomTypeModel
	tx := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainRoomType(m), nil
}

func (r *RoomTypeRepository) Create(ctx context.Context, rt *domain.RoomType) error {
	m := toRoomTypeModel(rt)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*rt = *toDomainRoomType(m)
	return nil
}

func (r *RoomTypeRepository) Update(ctx context.Context, rt *domain.RoomType) error {
	tx := r.db.WithContext(ctx).
		Model(&roomTypeModel{}).
		Where("id = ?", rt.ID).
		Updates(map[string]any{
			"name":            rt.Name,
			"description":     rt.Description,
			"price_per_night": rt.PricePerNight,
			"total_rooms":     rt.TotalRooms,
			"updated_at":      time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RoomTypeRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&roomTypeModel{}).Count(&cnt)
	return cnt, tx.Error
}

// SumTotalRooms is the hotel's total physical capacity across room types.
func (r *RoomTypeRepository) SumTotalRooms(ctx context.Context) (int64, error) {
	var sum int64
	tx := r.db.WithContext(ctx).
		Model(&roomTypeModel{}).
		Select("COALESCE(SUM(total_rooms), 0)").
		Scan(&sum)
	return sum, tx.Error
}
