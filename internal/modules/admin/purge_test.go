package admin

import (
	"context"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/admission"
	"hotelbooking/internal/modules/inventory"
	"hotelbooking/internal/modules/reservation"
	"hotelbooking/internal/repository"
	"hotelbooking/internal/testutil"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type env struct {
	db           *gorm.DB
	ledger       *inventory.Ledger
	admin        *Service
	reservations *reservation.Service
	pub          *recordingPublisher
	hook         *test.Hook
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	ledger := inventory.NewLedger(log)
	coord := admission.NewCoordinator(db, ledger, 5*time.Second, log)
	pub := &recordingPublisher{}

	return &env{
		db:           db,
		ledger:       ledger,
		admin:        NewService(db, ledger, coord, pub, log),
		reservations: reservation.NewService(db, ledger, coord, nil, log, reservation.Options{}),
		pub:          pub,
		hook:         hook,
	}
}

func (e *env) book(t *testing.T, guest *domain.User, roomTypeID int64, checkIn, checkOut string) *domain.Reservation {
	t.Helper()
	res, err := e.reservations.Create(context.Background(), testutil.Principal(guest), reservation.CreateReservationRequest{
		RoomTypeID: roomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	require.NoError(t, err)
	return res
}

func TestPurgeGuests_RequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	testutil.SeedUser(t, e.db, "guest@example.com", domain.RoleMember)

	out, err := e.admin.PurgeGuests(context.Background(), PurgeOptions{})

	require.ErrorIs(t, err, domain.ErrConfirmationRequired)
	assert.Nil(t, out)

	ids, err := repository.NewUserRepository(e.db).ListIDsByRoles(context.Background(), []domain.UserRole{domain.RoleMember})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestPurgeGuests_EmptyTableReturnsZero(t *testing.T) {
	e := newEnv(t)

	out, err := e.admin.PurgeGuests(context.Background(), PurgeOptions{Confirm: true})

	require.NoError(t, err)
	assert.Equal(t, PurgeResult{}, *out)
	assert.Empty(t, e.pub.events)
}

func TestPurgeGuests_ReleasesInventoryAndDeletesOwnedRows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	rt := testutil.SeedRoomType(t, e.db, "Twin", 120, 2)
	alice := testutil.SeedUser(t, e.db, "alice@example.com", domain.RoleMember)
	bob := testutil.SeedUser(t, e.db, "bob@example.com", domain.RoleMember)
	admin := testutil.SeedUser(t, e.db, "admin@example.com", domain.RoleAdmin)
	root := testutil.SeedUser(t, e.db, "root@example.com", domain.RoleSuperAdmin)

	a := e.book(t, alice, rt.ID, "2031-06-01", "2031-06-04")
	b := e.book(t, bob, rt.ID, "2031-06-02", "2031-06-03")
	_, err := e.reservations.Confirm(ctx, b.ID)
	require.NoError(t, err)
	cancelled := e.book(t, bob, rt.ID, "2031-07-01", "2031-07-02")
	_, err = e.reservations.Cancel(ctx, testutil.Principal(bob), cancelled.ID, "")
	require.NoError(t, err)
	kept := e.book(t, admin, rt.ID, "2031-06-01", "2031-06-02")

	avail, err := e.ledger.AvailableUnits(ctx, e.db, rt.ID, testutil.MustStay(t, "2031-06-01", "2031-06-04"))
	require.NoError(t, err)
	require.Equal(t, 0, avail)

	out, err := e.admin.PurgeGuests(ctx, PurgeOptions{Confirm: true})
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Users)
	assert.Equal(t, int64(3), out.Reservations)
	assert.Equal(t, int64(3), out.Payments)
	assert.Equal(t, int64(2), out.ReleasedReservations)

	// Only the admin's booking still holds a night.
	avail, err = e.ledger.AvailableUnits(ctx, e.db, rt.ID, testutil.MustStay(t, "2031-06-01", "2031-06-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, avail)
	avail, err = e.ledger.AvailableUnits(ctx, e.db, rt.ID, testutil.MustStay(t, "2031-06-02", "2031-06-04"))
	require.NoError(t, err)
	assert.Equal(t, 2, avail)

	reservations := repository.NewReservationRepository(e.db)
	_, err = reservations.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = reservations.GetByID(ctx, kept.ID)
	assert.NoError(t, err)

	users := repository.NewUserRepository(e.db)
	_, err = users.GetByID(ctx, root.ID)
	assert.NoError(t, err)
	_, err = users.GetByID(ctx, admin.ID)
	assert.NoError(t, err)

	require.Len(t, e.pub.events, 2)
	for _, ev := range e.pub.events {
		assert.Equal(t, domain.EventReservationCancelled, ev.Type)
		assert.Equal(t, domain.CancelReasonAccountPurged, ev.Reason)
	}

	steps := map[string]bool{}
	for _, entry := range e.hook.AllEntries() {
		if step, ok := entry.Data["step"].(string); ok {
			steps[step] = true
		}
	}
	for _, step := range []string{"select_users", "select_reservations", "release_inventory", "delete_payments", "delete_reservations", "delete_notifications", "delete_users"} {
		assert.True(t, steps[step], "missing log for step %s", step)
	}
}

func TestPurgeGuests_IncludeStaffKeepsSuperAdmins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	testutil.SeedUser(t, e.db, "guest@example.com", domain.RoleMember)
	testutil.SeedUser(t, e.db, "admin@example.com", domain.RoleAdmin)
	testutil.SeedUser(t, e.db, "root@example.com", domain.RoleSuperAdmin)

	out, err := e.admin.PurgeGuests(ctx, PurgeOptions{Confirm: true, IncludeStaff: true})

	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Users)

	counts, err := repository.NewUserRepository(e.db).CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.UserRole]int64{domain.RoleSuperAdmin: 1}, counts)
}

func TestPurgeGuests_TimeoutRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	log, _ := test.NewNullLogger()
	ledger := inventory.NewLedger(log)
	coord := admission.NewCoordinator(db, ledger, 50*time.Millisecond, log)
	svc := NewService(db, ledger, coord, nil, log)
	testutil.SeedUser(t, db, "guest@example.com", domain.RoleMember)

	holder := db.Begin()
	require.NoError(t, holder.Error)
	_, err := svc.PurgeGuests(context.Background(), PurgeOptions{Confirm: true})
	holder.Rollback()

	require.ErrorIs(t, err, domain.ErrAdmissionTimeout)
	ids, err := repository.NewUserRepository(db).ListIDsByRoles(context.Background(), []domain.UserRole{domain.RoleMember})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

// slowLedger makes every lock take a while, so a cascade over many
// reservations runs far longer than the admission timeout.
type slowLedger struct {
	*inventory.Ledger
	delay time.Duration
}

func (l slowLedger) Lock(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error {
	time.Sleep(l.delay)
	return l.Ledger.Lock(ctx, tx, roomTypeID, stay)
}

func TestPurgeGuests_LongCascadeOutlastsAdmissionTimeout(t *testing.T) {
	e := newEnv(t)
	guest := testutil.SeedUser(t, e.db, "guest@example.com", domain.RoleMember)
	rt := testutil.SeedRoomType(t, e.db, "Double", 100, 30)
	for i := 0; i < 20; i++ {
		e.book(t, guest, rt.ID, "2031-06-01", "2031-06-03")
	}

	log, _ := test.NewNullLogger()
	coord := admission.NewCoordinator(e.db, e.ledger, 50*time.Millisecond, log)
	svc := NewService(e.db, slowLedger{Ledger: e.ledger, delay: 10 * time.Millisecond}, coord, nil, log)

	out, err := svc.PurgeGuests(context.Background(), PurgeOptions{Confirm: true})
	require.NoError(t, err)
	assert.EqualValues(t, 20, out.ReleasedReservations)
	assert.EqualValues(t, 20, out.Reservations)
	assert.EqualValues(t, 1, out.Users)

	avail, err := e.ledger.AvailableUnits(context.Background(), e.db, rt.ID, testutil.MustStay(t, "2031-06-01", "2031-06-03"))
	require.NoError(t, err)
	assert.Equal(t, 30, avail)
}
