package repository

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

type notificationModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	UserID        int64      `gorm:"column:user_id;not null;index:idx_notifications_user_read,priority:1"`
	Type          string     `gorm:"column:type;type:varchar(40);not null"`
	Title         string     `gorm:"column:title;size:255;not null"`
	Message       string     `gorm:"column:message;type:text"`
	ReservationID *int64     `gorm:"column:reservation_id;index"`
	ReadAt        *time.Time `gorm:"column:read_at;index:idx_notifications_user_read,priority:2"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

func toDomainNotification(m notificationModel) domain.Notification {
	n := domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      domain.NotificationType(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		IsRead:    m.ReadAt != nil,
		CreatedAt: m.CreatedAt,
	}
	if m.ReservationID != nil {
		n.ReservationID = *m.ReservationID
	}
	return n
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	m := notificationModel{
		UserID:  n.UserID,
		Type:    string(n.Type),
		Title:   n.Title,
		Message: n.Message,
	}
	if n.ReservationID != 0 {
		id := n.ReservationID
		m.ReservationID = &id
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*n = toDomainNotification(m)
	return nil
}

// ListByUser returns the newest notifications first along with the user's
// unread count.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	var rows []notificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var unread int64
	err = r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&unread).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.Notification, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainNotification(m))
	}
	return out, unread, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64, at time.Time) error {
	var m notificationModel
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&notificationModel{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return tx.RowsAffected, tx.Error
}

func (r *NotificationRepository) DeleteByUserIDs(ctx context.Context, userIDs []int64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Delete(&notificationModel{})
	return tx.RowsAffected, tx.Error
}
