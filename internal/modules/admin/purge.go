package admin

import (
	"context"
	"fmt"
	"sort"

	"hotelbooking/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PurgeGuests deletes every MEMBER account (and ADMIN accounts when
// IncludeStaff is set) together with what they own. Ledger nights held by
// their live reservations are released first, then payments, reservations,
// notifications and users are deleted, all in one transaction. SUPERADMIN
// accounts are never purged.
func (s *Service) PurgeGuests(ctx context.Context, opts PurgeOptions) (*PurgeResult, error) {
	if !opts.Confirm {
		return nil, domain.ErrConfirmationRequired
	}

	roles := []domain.UserRole{domain.RoleMember}
	if opts.IncludeStaff {
		roles = append(roles, domain.RoleAdmin)
	}
	log := s.log.WithFields(logrus.Fields{"op": "purge_guests", "roles": roles})
	log.Warn("purge started")

	var (
		out      PurgeResult
		released []domain.Reservation
	)
	err := s.runner.Exclusive(ctx, "purge_guests", func(ctx context.Context, tx *gorm.DB) error {
		out = PurgeResult{}
		released = released[:0]

		users := s.users.WithTx(tx)
		reservations := s.reservations.WithTx(tx)
		payments := s.payments.WithTx(tx)
		notifications := s.notifications.WithTx(tx)

		ids, err := users.ListIDsByRoles(ctx, roles)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		log.WithField("step", "select_users").WithField("count", len(ids)).Info("purge step")
		if len(ids) == 0 {
			return nil
		}

		owned, err := reservations.ListByGuests(ctx, ids)
		if err != nil {
			return fmt.Errorf("list reservations: %w", err)
		}
		log.WithField("step", "select_reservations").WithField("count", len(owned)).Info("purge step")

		released, err = s.releaseHolding(ctx, tx, owned)
		if err != nil {
			return err
		}
		out.ReleasedReservations = int64(len(released))
		log.WithField("step", "release_inventory").WithField("count", len(released)).Info("purge step")

		resIDs := make([]int64, 0, len(owned))
		for _, r := range owned {
			resIDs = append(resIDs, r.ID)
		}

		if out.Payments, err = payments.DeleteByReservationIDs(ctx, resIDs); err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		log.WithField("step", "delete_payments").WithField("count", out.Payments).Info("purge step")

		if out.Reservations, err = reservations.DeleteByIDs(ctx, resIDs); err != nil {
			return fmt.Errorf("delete reservations: %w", err)
		}
		log.WithField("step", "delete_reservations").WithField("count", out.Reservations).Info("purge step")

		if out.Notifications, err = notifications.DeleteByUserIDs(ctx, ids); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		log.WithField("step", "delete_notifications").WithField("count", out.Notifications).Info("purge step")

		if out.Users, err = users.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		log.WithField("step", "delete_users").WithField("count", out.Users).Info("purge step")
		return nil
	})
	if err != nil {
		log.WithError(err).Error("purge rolled back")
		return nil, err
	}

	for i := range released {
		r := released[i]
		r.Status = domain.ReservationCancelled
		r.CancelReason = domain.CancelReasonAccountPurged
		ev := domain.NewReservationEvent(domain.EventReservationCancelled, &r)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			log.WithError(err).WithField("reservation_id", r.ID).Warn("failed to publish purge event")
		}
	}

	log.WithFields(logrus.Fields{
		"users":         out.Users,
		"reservations":  out.Reservations,
		"payments":      out.Payments,
		"notifications": out.Notifications,
		"released":      out.ReleasedReservations,
	}).Warn("purge completed")
	return &out, nil
}

// releaseHolding gives back the nights of every reservation that still holds
// inventory. Ledger rows are locked before each reservation row and room
// types are visited in ascending order.
func (s *Service) releaseHolding(ctx context.Context, tx *gorm.DB, owned []domain.Reservation) ([]domain.Reservation, error) {
	holding := make([]domain.Reservation, 0, len(owned))
	for _, r := range owned {
		if r.Status.HoldsInventory() {
			holding = append(holding, r)
		}
	}
	sort.Slice(holding, func(i, j int) bool {
		a, b := holding[i], holding[j]
		if a.RoomTypeID != b.RoomTypeID {
			return a.RoomTypeID < b.RoomTypeID
		}
		if !a.CheckIn.Equal(b.CheckIn) {
			return a.CheckIn.Before(b.CheckIn)
		}
		return a.ID < b.ID
	})

	reservations := s.reservations.WithTx(tx)
	out := make([]domain.Reservation, 0, len(holding))
	for _, r := range holding {
		if err := s.ledger.Lock(ctx, tx, r.RoomTypeID, r.Stay()); err != nil {
			return nil, err
		}
		cur, err := reservations.GetByIDForUpdate(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("lock reservation %d: %w", r.ID, err)
		}
		if !cur.Status.HoldsInventory() {
			continue
		}
		if err := s.ledger.Release(ctx, tx, cur.RoomTypeID, cur.Stay()); err != nil {
			return nil, err
		}
		out = append(out, *cur)
	}
	return out, nil
}
