package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	ErrRoomTypeNotFound = fmt.Errorf("room type %w", domain.ErrNotFound)
	ErrCapacityInUse    = fmt.Errorf("%w: total rooms below rooms already booked", domain.ErrConflict)
	ErrDuplicateName    = fmt.Errorf("%w: room type name already exists", domain.ErrConflict)
)

type Service struct {
	db        *gorm.DB
	roomTypes *repository.RoomTypeRepository
	ledger    *inventory.Ledger
	cache     Cache
	group     singleflight.Group
	log       logrus.FieldLogger
}

func NewService(db *gorm.DB, ledger *inventory.Ledger, cache Cache, log logrus.FieldLogger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:        db,
		roomTypes: repository.NewRoomTypeRepository(db),
		ledger:    ledger,
		cache:     cache,
		log:       log,
	}
}

/* ---------- LISTING ---------- */

// ListRoomTypes returns every room type ordered by price, cheapest first.
// Concurrent cache misses share one database read.
func (s *Service) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	items, ok, err := s.cache.GetRoomTypes(ctx)
	if err != nil {
		s.log.WithError(err).Warn("room type cache read failed")
	}
	if ok {
		return items, nil
	}

	v, err, _ := s.group.Do(roomTypesKey, func() (interface{}, error) {
		items, err := s.roomTypes.ListOrderedByPrice(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetRoomTypes(ctx, items); err != nil {
			s.log.WithError(err).Warn("room type cache write failed")
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.RoomType), nil
}

func (s *Service) GetRoomType(ctx context.Context, id int64) (*domain.RoomType, error) {
	rt, err := s.roomTypes.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomTypeNotFound
	}
	return rt, err
}

// Availability reports how many rooms of the type are free for the whole
// stay plus the per-night breakdown. It takes no locks, so the figure can be
// stale by the time a reservation is attempted.
func (s *Service) Availability(ctx context.Context, id int64, q AvailabilityQuery) (*AvailabilityResponse, error) {
	stay, err := domain.ParseStay(q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if stay.Nights() > domain.MaxRangeNights {
		return nil, fmt.Errorf("%w: range longer than %d nights", domain.ErrValidation, domain.MaxRangeNights)
	}
	if _, err := s.GetRoomType(ctx, id); err != nil {
		return nil, err
	}

	avail, err := s.ledger.AvailableUnits(ctx, s.db, id, stay)
	if err != nil {
		return nil, err
	}
	nights, err := s.ledger.Snapshot(ctx, s.db, id, stay)
	if err != nil {
		return nil, err
	}

	return &AvailabilityResponse{
		RoomTypeID: id,
		CheckIn:    stay.FirstNight(),
		CheckOut:   domain.FormatDate(stay.CheckOut),
		Available:  avail,
		Nights:     nights,
	}, nil
}

/* ---------- ADMINISTRATION ---------- */

func (s *Service) CreateRoomType(ctx context.Context, req RoomTypeRequest) (*domain.RoomType, error) {
	rt := &domain.RoomType{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		TotalRooms:    req.TotalRooms,
	}
	if err := s.roomTypes.Create(ctx, rt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"room_type_id": rt.ID, "total_rooms": rt.TotalRooms}).Info("room type created")
	return rt, nil
}

// UpdateRoomType edits a room type. TotalRooms may not drop below the
// busiest night ever committed, past nights included.
func (s *Service) UpdateRoomType(ctx context.Context, id int64, req RoomTypeRequest) (*domain.RoomType, error) {
	var updated *domain.RoomType
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.roomTypes.WithTx(tx)
		cur, err := repo.GetByIDForUpdate(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomTypeNotFound
		}
		if err != nil {
			return err
		}

		if req.TotalRooms < cur.TotalRooms {
			peak, err := s.ledger.PeakCommitted(ctx, tx, id)
			if err != nil {
				return err
			}
			if req.TotalRooms < peak {
				return fmt.Errorf("%w (%d booked, %d requested)", ErrCapacityInUse, peak, req.TotalRooms)
			}
		}

		cur.Name = strings.TrimSpace(req.Name)
		cur.Description = req.Description
		cur.PricePerNight = req.PricePerNight
		cur.TotalRooms = req.TotalRooms
		if err := repo.Update(ctx, cur); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateName
			}
			return err
		}
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"room_type_id": id, "total_rooms": updated.TotalRooms}).Info("room type updated")
	return updated, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("room type cache invalidation failed")
	}
}
