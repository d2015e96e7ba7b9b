package catalog

import (
	"context"
	"testing"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, cache Cache) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	log, _ := test.NewNullLogger()
	svc := NewService(db, inventory.NewLedger(log), cache, log)
	return svc, db
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func prices(items []domain.RoomType) []float64 {
	out := make([]float64, 0, len(items))
	for _, rt := range items {
		out = append(out, rt.PricePerNight)
	}
	return out
}

func TestListRoomTypesOrderedByPrice(t *testing.T) {
	svc, db := newTestService(t, nil)
	testutil.SeedRoomType(t, db, "Deluxe", 150, 4)
	testutil.SeedRoomType(t, db, "Economy", 90, 10)
	testutil.SeedRoomType(t, db, "Suite", 200, 2)

	items, err := svc.ListRoomTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 150, 200}, prices(items))
	assert.Equal(t, "Economy", items[0].Name)
}

func TestListRoomTypesEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	items, err := svc.ListRoomTypes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListRoomTypesServedFromRedisUntilInvalidated(t *testing.T) {
	cache, mr := newRedisCache(t)
	svc, db := newTestService(t, cache)
	ctx := context.Background()
	testutil.SeedRoomType(t, db, "Deluxe", 150, 4)

	items, err := svc.ListRoomTypes(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, mr.Exists(roomTypesKey))

	// Written behind the service's back: the cached list still wins.
	testutil.SeedRoomType(t, db, "Economy", 90, 10)
	items, err = svc.ListRoomTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.CreateRoomType(ctx, RoomTypeRequest{Name: "Suite", PricePerNight: 200, TotalRooms: 2})
	require.NoError(t, err)
	assert.False(t, mr.Exists(roomTypesKey))

	items, err = svc.ListRoomTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 150, 200}, prices(items))
}

func TestListRoomTypesFallsBackWhenRedisIsDown(t *testing.T) {
	cache, mr := newRedisCache(t)
	svc, db := newTestService(t, cache)
	testutil.SeedRoomType(t, db, "Deluxe", 150, 4)
	mr.Close()

	items, err := svc.ListRoomTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpdateRoomTypeGuardsBookedCapacity(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Double", 120, 3)
	stay := testutil.MustStay(t, "2030-02-01", "2030-02-03")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ledger.Reserve(ctx, tx, rt.ID, stay, 2)
	}))

	_, err := svc.UpdateRoomType(ctx, rt.ID, RoomTypeRequest{Name: "Double", PricePerNight: 120, TotalRooms: 1})
	require.ErrorIs(t, err, ErrCapacityInUse)
	assert.ErrorIs(t, err, domain.ErrConflict)

	updated, err := svc.UpdateRoomType(ctx, rt.ID, RoomTypeRequest{Name: "Double", PricePerNight: 130, TotalRooms: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalRooms)
	assert.InDelta(t, 130.0, updated.PricePerNight, 0.001)

	_, err = svc.UpdateRoomType(ctx, 9999, RoomTypeRequest{Name: "Ghost", TotalRooms: 1})
	assert.ErrorIs(t, err, ErrRoomTypeNotFound)
}

func TestUpdateRoomTypeGuardsPastNightsToo(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Twin", 100, 2)
	past := testutil.MustStay(t, "2020-12-20", "2020-12-22")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ledger.Reserve(ctx, tx, rt.ID, past, 2)
	}))

	_, err := svc.UpdateRoomType(ctx, rt.ID, RoomTypeRequest{Name: "Twin", PricePerNight: 100, TotalRooms: 1})
	require.ErrorIs(t, err, ErrCapacityInUse)

	out, err := svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "2020-12-20", CheckOut: "2020-12-22"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Available)
}

func TestAvailabilityCapsRangeLength(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Double", 120, 3)

	_, err := svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "0001-01-01", CheckOut: "9999-12-31"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "2030-01-01", CheckOut: "2031-01-03"})
	require.ErrorIs(t, err, domain.ErrValidation)

	out, err := svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "2030-01-01", CheckOut: "2031-01-02"})
	require.NoError(t, err)
	assert.Len(t, out.Nights, domain.MaxRangeNights)
}

func TestCreateRoomTypeRejectsDuplicateName(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateRoomType(ctx, RoomTypeRequest{Name: "Suite", PricePerNight: 200, TotalRooms: 2})
	require.NoError(t, err)
	_, err = svc.CreateRoomType(ctx, RoomTypeRequest{Name: "Suite", PricePerNight: 250, TotalRooms: 1})
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestAvailability(t *testing.T) {
	svc, db := newTestService(t, nil)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Double", 120, 3)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.ledger.Reserve(ctx, tx, rt.ID, testutil.MustStay(t, "2030-02-02", "2030-02-03"), 2)
	}))

	out, err := svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "2030-02-01", CheckOut: "2030-02-04"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Available)
	require.Len(t, out.Nights, 3)
	assert.Equal(t, 3, out.Nights[0].Available)
	assert.Equal(t, 1, out.Nights[1].Available)

	_, err = svc.Availability(ctx, rt.ID, AvailabilityQuery{CheckIn: "2030-02-04", CheckOut: "2030-02-01"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Availability(ctx, 4242, AvailabilityQuery{CheckIn: "2030-02-01", CheckOut: "2030-02-02"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
