package repository

import (
	"context"
	"errors"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

type paymentModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	ReservationID int64      `gorm:"column:reservation_id;not null;uniqueIndex"`
	Amount        float64    `gorm:"column:amount;not null"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`
	ProviderRef   *string    `gorm:"column:provider_ref;size:128"`
	FailureReason *string    `gorm:"column:failure_reason;type:text"`
	RawPayload    *string    `gorm:"column:raw_payload;type:text"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null;index"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	p := &domain.Payment{
		ID:            m.ID,
		ReservationID: m.ReservationID,
		Amount:        m.Amount,
		Status:        domain.PaymentStatus(m.Status),
		ExpiresAt:     m.ExpiresAt,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.ProviderRef != nil {
		p.ProviderRef = *m.ProviderRef
	}
	if m.FailureReason != nil {
		p.FailureReason = *m.FailureReason
	}
	if m.RawPayload != nil {
		p.RawPayload = *m.RawPayload
	}
	return p
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := paymentModel{
		ReservationID: p.ReservationID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		ExpiresAt:     p.ExpiresAt.UTC(),
	}
	if p.ProviderRef != "" {
		v := p.ProviderRef
		m.ProviderRef = &v
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByReservationID(ctx context.Context, reservationID int64) (*domain.Payment, error) {
	var m paymentModel
	if err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

// MarkPaidIdempotent records a successful payment. A second delivery of the
// same success signal reports changed=false and leaves the row untouched.
func (r *PaymentRepository) MarkPaidIdempotent(ctx context.Context, reservationID int64, providerRef, rawBody string, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p paymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("reservation_id = ?", reservationID).First(&p).Error; err != nil {
			return err
		}
		if p.Status == string(domain.PaymentPaid) || p.Status == string(domain.PaymentRefundRequired) {
			changed = false
			return nil
		}
		res := tx.Model(&paymentModel{}).Where("reservation_id = ?", reservationID).Updates(map[string]any{
			"status":       string(domain.PaymentPaid),
			"provider_ref": providerRef,
			"raw_payload":  rawBody,
			"paid_at":      paidAt.UTC(),
			"updated_at":   paidAt.UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("payment row not updated")
		}
		changed = true
		return nil
	})
	return changed, err
}

// MarkFailed records a failed payment unless it was already settled.
func (r *PaymentRepository) MarkFailed(ctx context.Context, reservationID int64, reason, rawBody string) error {
	return r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("reservation_id = ? AND status = ?", reservationID, string(domain.PaymentPending)).
		Updates(map[string]any{
			"status":         string(domain.PaymentFailed),
			"failure_reason": reason,
			"raw_payload":    rawBody,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *PaymentRepository) MarkRefundRequired(ctx context.Context, reservationID int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("reservation_id = ? AND status = ?", reservationID, string(domain.PaymentPaid)).
		Updates(map[string]any{
			"status":         string(domain.PaymentRefundRequired),
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *PaymentRepository) DeleteByReservationIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Where("reservation_id IN ?", ids).Delete(&paymentModel{})
	return tx.RowsAffected, tx.Error
}
