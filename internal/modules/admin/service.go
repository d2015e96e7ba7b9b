package admin

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)


type Service struct {
	db            *gorm.DB
	users         *repository.UserRepository
	reservations  *repository.ReservationRepository
	payments      *repository.PaymentRepository
	roomTypes     *repository.RoomTypeRepository
	notifications *repository.NotificationRepository
	ledger        Ledger
	runner        ExclusiveRunner
	publisher     events.Publisher
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewService(db *gorm.DB, ledger Ledger, runner ExclusiveRunner, publisher events.Publisher, log logrus.FieldLogger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:            db,
		users:         repository.NewUserRepository(db),
		reservations:  repository.NewReservationRepository(db),
		payments:      repository.NewPaymentRepository(db),
		roomTypes:     repository.NewRoomTypeRepository(db),
		notifications: repository.NewNotificationRepository(db),
		ledger:        ledger,
		runner:        runner,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	byStatus, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	roomTypes, err := s.roomTypes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count room types: %w", err)
	}
	totalRooms, err := s.roomTypes.SumTotalRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum rooms: %w", err)
	}

	now := s.now().UTC()
	tonight, err := s.ledger.CommittedOn(ctx, s.db, domain.FormatDate(now))
	if err != nil {
		return nil, err
	}
	upcoming, err := s.ledger.TotalCommitted(ctx, s.db, now)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		ReservationsByStatus: byStatus,
		UsersByRole:          byRole,
		RoomTypes:            roomTypes,
		TotalRooms:           totalRooms,
		OccupiedTonight:      tonight,
		UpcomingRoomNights:   upcoming,
		GeneratedAt:          now,
	}
	if totalRooms > 0 {
		d.OccupancyRate = float64(tonight) / float64(totalRooms)
	}
	return d, nil
}

// LedgerSnapshot reports per-night usage of a room type for nights in
// [from, to).
func (s *Service) LedgerSnapshot(ctx context.Context, roomTypeID int64, q LedgerQuery) (*LedgerSnapshot, error) {
	stay, err := domain.ParseStay(q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if stay.Nights() > domain.MaxRangeNights {
		return nil, fmt.Errorf("%w: range longer than %d nights", domain.ErrValidation, domain.MaxRangeNights)
	}

	nights, err := s.ledger.Snapshot(ctx, s.db, roomTypeID, stay)
	if err != nil {
		return nil, err
	}
	return &LedgerSnapshot{RoomTypeID: roomTypeID, From: q.From, To: q.To, Nights: nights}, nil
}
