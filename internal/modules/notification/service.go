package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/repository"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = fmt.Errorf("notification %w", domain.ErrNotFound)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service keeps guests' in-app inbox. It is also an events.Publisher so
// reservation lifecycle changes land in the guest's inbox.
type Service struct {
	repo *repository.NotificationRepository
	now  func() time.Time
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Publish(ctx context.Context, ev domain.ReservationEvent) error {
	n, ok := fromEvent(ev)
	if !ok {
		return nil
	}
	return s.repo.Create(ctx, n)
}

func fromEvent(ev domain.ReservationEvent) (*domain.Notification, bool) {
	n := &domain.Notification{UserID: ev.GuestID, ReservationID: ev.ReservationID}
	stay := fmt.Sprintf("%s to %s", ev.CheckIn, ev.CheckOut)

	switch ev.Type {
	case domain.EventReservationCreated:
		n.Type = domain.NotifReservationCreated
		n.Title = "Reservation received"
		n.Message = fmt.Sprintf("Reservation %s for %s is awaiting payment.", ev.Reference, stay)
	case domain.EventReservationConfirmed:
		n.Type = domain.NotifReservationConfirmed
		n.Title = "Reservation confirmed"
		n.Message = fmt.Sprintf("Reservation %s for %s is confirmed.", ev.Reference, stay)
	case domain.EventReservationCancelled:
		if ev.Reason == domain.CancelReasonAccountPurged {
			return nil, false
		}
		n.Type = domain.NotifReservationCancelled
		n.Title = "Reservation cancelled"
		n.Message = fmt.Sprintf("Reservation %s for %s was cancelled (%s).", ev.Reference, stay, ev.Reason)
	case domain.EventReservationCompleted:
		n.Type = domain.NotifReservationCompleted
		n.Title = "Thanks for staying with us"
		n.Message = fmt.Sprintf("Reservation %s is complete.", ev.Reference)
	default:
		return nil, false
	}
	return n, true
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	err := s.repo.MarkRead(ctx, id, userID, s.now().UTC())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}
