package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/events"
	"hotelbooking/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	DefaultPaymentTimeout = 30 * time.Minute
	DefaultMaxStayNights  = 30
	defaultListLimit      = 50
	maxListLimit          = 200
	sweepBatch            = 100
)

type Options struct {
	PaymentTimeout time.Duration
	MaxStayNights  int
	Now            func() time.Time
}

type Service struct {
	db           *gorm.DB
	reservations *repository.ReservationRepository
	payments     *repository.PaymentRepository
	roomTypes    *repository.RoomTypeRepository
	users        *repository.UserRepository
	inventory    Inventory
	admission    Admitter
	publisher    events.Publisher
	log          logrus.FieldLogger
	tracer       trace.Tracer
	opts         Options
	sweepBatch   int
}

func NewService(
	db *gorm.DB,
	inventory Inventory,
	admission Admitter,
	publisher events.Publisher,
	log logrus.FieldLogger,
	opts Options,
) *Service {
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = DefaultPaymentTimeout
	}
	if opts.MaxStayNights <= 0 {
		opts.MaxStayNights = DefaultMaxStayNights
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:           db,
		reservations: repository.NewReservationRepository(db),
		payments:     repository.NewPaymentRepository(db),
		roomTypes:    repository.NewRoomTypeRepository(db),
		users:        repository.NewUserRepository(db),
		inventory:    inventory,
		admission:    admission,
		publisher:    publisher,
		log:          log,
		tracer:       otel.Tracer("hotelbooking/reservation"),
		opts:         opts,
		sweepBatch:   sweepBatch,
	}
}

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

// Create admits a new PENDING reservation for one room of the type, or
// fails with ErrCapacityExceeded if any night of the stay is fully booked.
func (s *Service) Create(ctx context.Context, p domain.Principal, req CreateReservationRequest) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Create", trace.WithAttributes(
		attribute.Int64("room_type_id", req.RoomTypeID),
		attribute.String("check_in", req.CheckIn),
		attribute.String("check_out", req.CheckOut),
	))
	defer span.End()

	if !p.CanReserve() {
		return nil, ErrForbidden
	}

	guestID := p.UserID
	if req.GuestID != 0 && req.GuestID != p.UserID {
		if !p.IsStaff() {
			return nil, fmt.Errorf("%w: cannot book for another guest", ErrForbidden)
		}
		if _, err := s.users.GetByID(ctx, req.GuestID); err != nil {
			return nil, notFound(err, ErrGuestNotFound)
		}
		guestID = req.GuestID
	}

	stay, err := s.validateStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	rt, err := s.roomTypes.GetByID(ctx, req.RoomTypeID)
	if err != nil {
		return nil, notFound(err, ErrRoomTypeNotFound)
	}

	var created *domain.Reservation
	err = s.admission.Admit(ctx, rt.ID, stay, func(ctx context.Context, tx *gorm.DB) error {
		avail, err := s.inventory.AvailableUnits(ctx, tx, rt.ID, stay)
		if err != nil {
			return err
		}
		if avail < 1 {
			return fmt.Errorf("%w: no %q rooms left between %s and %s",
				ErrCapacityExceeded, rt.Name, stay.FirstNight(), domain.FormatDate(stay.CheckOut))
		}
		if err := s.inventory.Reserve(ctx, tx, rt.ID, stay, 1); err != nil {
			return err
		}

		now := s.now()
		res := &domain.Reservation{
			Reference:  uuid.NewString(),
			RoomTypeID: rt.ID,
			GuestID:    guestID,
			CheckIn:    stay.CheckIn,
			CheckOut:   stay.CheckOut,
			Nights:     stay.Nights(),
			TotalPrice: float64(stay.Nights()) * rt.PricePerNight,
			Status:     domain.ReservationPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.reservations.WithTx(tx).Create(ctx, res); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}

		pay := &domain.Payment{
			ReservationID: res.ID,
			Amount:        res.TotalPrice,
			Status:        domain.PaymentPending,
			ExpiresAt:     now.Add(s.opts.PaymentTimeout),
		}
		if err := s.payments.WithTx(tx).Create(ctx, pay); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		created = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.logFailure(err, "create reservation", logrus.Fields{
			"room_type_id": rt.ID,
			"guest_id":     guestID,
			"check_in":     req.CheckIn,
			"check_out":    req.CheckOut,
		})
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"reference":      created.Reference,
		"room_type_id":   created.RoomTypeID,
		"guest_id":       created.GuestID,
		"nights":         created.Nights,
	}).Info("reservation created")
	s.publish(ctx, domain.EventReservationCreated, created)
	return created, nil
}

func (s *Service) validateStay(checkIn, checkOut string) (domain.Stay, error) {
	stay, err := domain.ParseStay(checkIn, checkOut)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if stay.CheckIn.Before(domain.DateOf(s.now())) {
		return domain.Stay{}, fmt.Errorf("%w: check-in is in the past", ErrValidation)
	}
	if stay.Nights() > s.opts.MaxStayNights {
		return domain.Stay{}, fmt.Errorf("%w: stay longer than %d nights", ErrValidation, s.opts.MaxStayNights)
	}
	return stay, nil
}

// Get returns a reservation the principal may see.
func (s *Service) Get(ctx context.Context, p domain.Principal, id int64) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	if !p.MayAccess(res.GuestID) {
		return nil, ErrForbidden
	}
	return res, nil
}

func (s *Service) ListMine(ctx context.Context, p domain.Principal, limit, offset int) ([]domain.Reservation, error) {
	if !p.IsAuthenticated() {
		return nil, ErrForbidden
	}
	return s.reservations.List(ctx, repository.ReservationFilter{
		GuestID: p.UserID,
		Limit:   clampLimit(limit),
		Offset:  max(offset, 0),
	})
}

// List is the staff view over every reservation.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Reservation, error) {
	status := domain.ReservationStatus(strings.ToUpper(q.Status))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
	}
	return s.reservations.List(ctx, repository.ReservationFilter{
		Status:     status,
		RoomTypeID: q.RoomTypeID,
		GuestID:    q.GuestID,
		Limit:      clampLimit(q.Limit),
		Offset:     max(q.Offset, 0),
	})
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// Confirm moves a PENDING reservation to CONFIRMED. On any other status it
// changes nothing and returns the reservation as it is.
func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Confirm", trace.WithAttributes(attribute.Int64("reservation_id", id)))
	defer span.End()

	var out *domain.Reservation
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.reservations.WithTx(tx)
		cur, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		if cur.Status != domain.ReservationPending {
			out = cur
			return nil
		}

		ok, err := repo.TransitionStatus(ctx, id, domain.ReservationPending, domain.ReservationConfirmed, "", s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %d changed while locked", domain.ErrInvariantViolation, id)
		}
		out, err = repo.GetByID(ctx, id)
		changed = true
		return err
	})
	if err != nil {
		span.RecordError(err)
		s.logFailure(err, "confirm reservation", logrus.Fields{"reservation_id": id})
		return nil, err
	}

	if changed {
		s.log.WithField("reservation_id", id).Info("reservation confirmed")
		s.publish(ctx, domain.EventReservationConfirmed, out)
	}
	return out, nil
}

// Cancel cancels a reservation the principal owns, or any reservation for
// staff. Cancelling twice is a no-op; a completed stay cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, p domain.Principal, id int64, reason string) (*domain.Reservation, error) {
	res, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = domain.CancelReasonGuest
		if p.IsStaff() && p.UserID != res.GuestID {
			reason = domain.CancelReasonStaff
		}
	}
	return s.cancel(ctx, res, reason, false)
}

// CancelPending cancels the reservation only while it is still PENDING, e.g.
// after a failed payment. A reservation staff already confirmed is returned
// unchanged.
func (s *Service) CancelPending(ctx context.Context, id int64, reason string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return s.cancel(ctx, res, reason, true)
}

func (s *Service) cancel(ctx context.Context, res *domain.Reservation, reason string, pendingOnly bool) (*domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Cancel", trace.WithAttributes(
		attribute.Int64("reservation_id", res.ID),
		attribute.String("reason", reason),
	))
	defer span.End()

	switch {
	case res.Status == domain.ReservationCancelled:
		return res, nil
	case pendingOnly && res.Status != domain.ReservationPending:
		return res, nil
	case res.Status == domain.ReservationCompleted:
		return nil, invalidTransition(res.Status, domain.ReservationCancelled)
	}

	var out *domain.Reservation
	changed := false
	// The stay never changes after creation, so the range read above is the
	// range to lock. Ledger rows are locked before the reservation row.
	err := s.admission.Admit(ctx, res.RoomTypeID, res.Stay(), func(ctx context.Context, tx *gorm.DB) error {
		repo := s.reservations.WithTx(tx)
		cur, err := repo.GetByIDForUpdate(ctx, res.ID)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		switch {
		case cur.Status == domain.ReservationCancelled,
			pendingOnly && cur.Status != domain.ReservationPending:
			out = cur
			return nil
		case cur.Status == domain.ReservationCompleted:
			return invalidTransition(cur.Status, domain.ReservationCancelled)
		}

		if err := s.inventory.Release(ctx, tx, cur.RoomTypeID, cur.Stay()); err != nil {
			return err
		}
		ok, err := repo.TransitionStatus(ctx, cur.ID, cur.Status, domain.ReservationCancelled, reason, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %d changed while locked", domain.ErrInvariantViolation, cur.ID)
		}

		payments := s.payments.WithTx(tx)
		if cur.Status == domain.ReservationConfirmed {
			err = payments.MarkRefundRequired(ctx, cur.ID, "reservation cancelled: "+reason)
		} else {
			err = payments.MarkFailed(ctx, cur.ID, "reservation cancelled: "+reason, "")
		}
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		out, err = repo.GetByID(ctx, cur.ID)
		changed = true
		return err
	})
	if err != nil {
		span.RecordError(err)
		s.logFailure(err, "cancel reservation", logrus.Fields{"reservation_id": res.ID, "reason": reason})
		return nil, err
	}

	if changed {
		s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "reason": reason}).Info("reservation cancelled")
		s.publish(ctx, domain.EventReservationCancelled, out)
	}
	return out, nil
}

// Complete closes a CONFIRMED reservation whose check-out date has arrived.
// Its nights stay committed since they were used.
func (s *Service) Complete(ctx context.Context, id int64) (*domain.Reservation, error) {
	var out *domain.Reservation
	changed := false
	today := domain.FormatDate(s.now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.reservations.WithTx(tx)
		cur, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrNotFound)
		}
		switch {
		case cur.Status == domain.ReservationCompleted:
			out = cur
			return nil
		case cur.Status != domain.ReservationConfirmed:
			return invalidTransition(cur.Status, domain.ReservationCompleted)
		case domain.FormatDate(cur.CheckOut) > today:
			return fmt.Errorf("%w: check-out %s has not been reached", ErrInvalidTransition, domain.FormatDate(cur.CheckOut))
		}

		ok, err := repo.TransitionStatus(ctx, id, domain.ReservationConfirmed, domain.ReservationCompleted, "", s.now())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %d changed while locked", domain.ErrInvariantViolation, id)
		}
		out, err = repo.GetByID(ctx, id)
		changed = true
		return err
	})
	if err != nil {
		s.logFailure(err, "complete reservation", logrus.Fields{"reservation_id": id})
		return nil, err
	}

	if changed {
		s.log.WithField("reservation_id", id).Info("reservation completed")
		s.publish(ctx, domain.EventReservationCompleted, out)
	}
	return out, nil
}

// ExpirePending cancels pending reservations whose payment window has closed
// and reports how many were cancelled. A reservation that fails to cancel is
// skipped for this pass and does not hold up the ones after it.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	n := 0
	var afterID int64
	for {
		expired, err := s.reservations.ListExpiredPending(ctx, s.now(), afterID, s.sweepBatch)
		if err != nil {
			return n, fmt.Errorf("list expired reservations: %w", err)
		}
		for _, res := range expired {
			afterID = res.ID
			out, err := s.cancel(ctx, &res, domain.CancelReasonPaymentTimeout, true)
			if err != nil {
				if ctx.Err() != nil {
					return n, ctx.Err()
				}
				continue
			}
			if out.Status == domain.ReservationCancelled {
				n++
			}
		}
		if len(expired) < s.sweepBatch {
			return n, nil
		}
	}
}

// CompleteElapsed completes confirmed reservations whose check-out has passed.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	n := 0
	var afterID int64
	today := domain.FormatDate(s.now())
	for {
		due, err := s.reservations.ListCompletable(ctx, today, afterID, s.sweepBatch)
		if err != nil {
			return n, fmt.Errorf("list completable reservations: %w", err)
		}
		for _, res := range due {
			afterID = res.ID
			if _, err := s.Complete(ctx, res.ID); err != nil {
				if ctx.Err() != nil {
					return n, ctx.Err()
				}
				continue
			}
			n++
		}
		if len(due) < s.sweepBatch {
			return n, nil
		}
	}
}

func (s *Service) publish(ctx context.Context, t domain.EventType, res *domain.Reservation) {
	ev := domain.NewReservationEvent(t, res)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":          t,
			"reservation_id": res.ID,
		}).Warn("failed to publish reservation event")
	}
}

// logFailure logs internal failures loudly and expected business outcomes
// quietly.
func (s *Service) logFailure(err error, op string, fields logrus.Fields) {
	entry := s.log.WithError(err).WithFields(fields)
	switch {
	case errors.Is(err, domain.ErrInvariantViolation):
		entry.Error(op + ": invariant violation")
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, ErrForbidden):
		entry.Debug(op + " rejected")
	case errors.Is(err, domain.ErrAdmissionTimeout):
		entry.Warn(op + " timed out")
	default:
		entry.Error(op + " failed")
	}
}
