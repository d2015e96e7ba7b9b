package inventory_test

import (
	"context"
	"testing"

	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*inventory.Ledger, *gorm.DB, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return inventory.NewLedger(log), testutil.OpenDB(t), hook
}

func TestReserveAndReleaseAcrossNights(t *testing.T) {
	ledger, db, _ := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Double", 120, 2)
	stay := testutil.MustStay(t, "2030-03-01", "2030-03-04")

	err := db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, ledger.Lock(ctx, tx, rt.ID, stay))
		return ledger.Reserve(ctx, tx, rt.ID, stay, 1)
	})
	require.NoError(t, err)

	avail, err := ledger.AvailableUnits(ctx, db, rt.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 1, avail)

	// A one-night stay inside the range sees the same commitment.
	avail, err = ledger.AvailableUnits(ctx, db, rt.ID, testutil.MustStay(t, "2030-03-02", "2030-03-03"))
	require.NoError(t, err)
	assert.Equal(t, 1, avail)

	// Check-out night is not occupied.
	avail, err = ledger.AvailableUnits(ctx, db, rt.ID, testutil.MustStay(t, "2030-03-04", "2030-03-05"))
	require.NoError(t, err)
	assert.Equal(t, 2, avail)

	err = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, ledger.Lock(ctx, tx, rt.ID, stay))
		return ledger.Release(ctx, tx, rt.ID, stay)
	})
	require.NoError(t, err)

	avail, err = ledger.AvailableUnits(ctx, db, rt.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 2, avail)
}

func TestReserveRejectsWholeStayWhenOneNightIsFull(t *testing.T) {
	ledger, db, _ := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Suite", 300, 1)

	middle := testutil.MustStay(t, "2030-05-02", "2030-05-03")
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, rt.ID, middle, 1)
	}))

	wide := testutil.MustStay(t, "2030-05-01", "2030-05-04")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.Lock(ctx, tx, rt.ID, wide); err != nil {
			return err
		}
		return ledger.Reserve(ctx, tx, rt.ID, wide, 1)
	})
	require.ErrorIs(t, err, inventory.ErrCapacityExceeded)

	usage, err := ledger.Snapshot(ctx, db, rt.ID, wide)
	require.NoError(t, err)
	require.Len(t, usage, 3)
	assert.Equal(t, 0, usage[0].Committed)
	assert.Equal(t, 1, usage[1].Committed)
	assert.Equal(t, 0, usage[2].Committed)
	assert.Equal(t, 1, usage[0].Available)
}

func TestReserveRejectsNonPositiveDelta(t *testing.T) {
	ledger, db, hook := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Single", 80, 3)
	stay := testutil.MustStay(t, "2030-01-10", "2030-01-11")

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, rt.ID, stay, 0)
	})
	require.ErrorIs(t, err, inventory.ErrInvariantViolation)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestReleaseOfUnheldNightIsInvariantViolation(t *testing.T) {
	ledger, db, hook := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Twin", 95, 2)
	stay := testutil.MustStay(t, "2030-02-01", "2030-02-03")

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.Lock(ctx, tx, rt.ID, stay); err != nil {
			return err
		}
		return ledger.Release(ctx, tx, rt.ID, stay)
	})
	require.ErrorIs(t, err, inventory.ErrInvariantViolation)
	assert.NotEmpty(t, hook.AllEntries())

	avail, err := ledger.AvailableUnits(ctx, db, rt.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 2, avail)
}

func TestZeroCapacityHasNoAvailability(t *testing.T) {
	ledger, db, _ := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Closed wing", 50, 0)
	stay := testutil.MustStay(t, "2030-07-01", "2030-07-02")

	avail, err := ledger.AvailableUnits(ctx, db, rt.ID, stay)
	require.NoError(t, err)
	assert.Equal(t, 0, avail)

	err = db.Transaction(func(tx *gorm.DB) error {
		return ledger.Reserve(ctx, tx, rt.ID, stay, 1)
	})
	assert.ErrorIs(t, err, inventory.ErrCapacityExceeded)
}

func TestUnknownRoomType(t *testing.T) {
	ledger, db, _ := newLedger(t)
	stay := testutil.MustStay(t, "2030-07-01", "2030-07-02")

	_, err := ledger.AvailableUnits(context.Background(), db, 9999, stay)
	assert.ErrorIs(t, err, inventory.ErrUnknownRoomType)
}

func TestPeakCommittedCoversEveryNight(t *testing.T) {
	ledger, db, _ := newLedger(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, db, "Family", 180, 4)
	other := testutil.SeedRoomType(t, db, "Suite", 300, 4)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := ledger.Reserve(ctx, tx, rt.ID, testutil.MustStay(t, "2020-09-01", "2020-09-03"), 3); err != nil {
			return err
		}
		if err := ledger.Reserve(ctx, tx, rt.ID, testutil.MustStay(t, "2030-09-02", "2030-09-04"), 2); err != nil {
			return err
		}
		return ledger.Reserve(ctx, tx, other.ID, testutil.MustStay(t, "2030-09-02", "2030-09-03"), 4)
	}))

	peak, err := ledger.PeakCommitted(ctx, db, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, peak)

	unused := testutil.SeedRoomType(t, db, "Single", 80, 1)
	peak, err = ledger.PeakCommitted(ctx, db, unused.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, peak)
}

func TestLockTouchesOnlyTheStayNightsOfOneRoomType(t *testing.T) {
	ledger, db, _ := newLedger(t)
	ctx := context.Background()
	double := testutil.SeedRoomType(t, db, "Double", 120, 2)
	suite := testutil.SeedRoomType(t, db, "Suite", 300, 2)
	stay := testutil.MustStay(t, "2030-03-01", "2030-03-04")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.Lock(ctx, tx, double.ID, stay)
	}))

	var dates []string
	require.NoError(t, db.Table("inventory_ledger").Where("room_type_id = ?", double.ID).Order("stay_date").Pluck("stay_date", &dates).Error)
	assert.Equal(t, []string{"2030-03-01", "2030-03-02", "2030-03-03"}, dates)

	var others int64
	require.NoError(t, db.Table("inventory_ledger").Where("room_type_id = ?", suite.ID).Count(&others).Error)
	assert.Zero(t, others)
}
