package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	pgLockNotAvailable = "55P03"
	pgDeadlockDetected = "40P01"
)

const DefaultTimeout = 5 * time.Second

// Locker takes the per-night inventory locks of a stay inside a transaction.
type Locker interface {
	Lock(ctx context.Context, tx *gorm.DB, roomTypeID int64, stay domain.Stay) error
}

// Coordinator serialises inventory-changing work on overlapping stays across
// every instance sharing the database. The lock lives in the database rows
// themselves so no process-local mutex is involved.
type Coordinator struct {
	db      *gorm.DB
	locker  Locker
	timeout time.Duration
	log     logrus.FieldLogger
	tracer  trace.Tracer
}

func NewCoordinator(db *gorm.DB, locker Locker, timeout time.Duration, log logrus.FieldLogger) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		db:      db,
		locker:  locker,
		timeout: timeout,
		log:     log,
		tracer:  otel.Tracer("hotelbooking/admission"),
	}
}

func (c *Coordinator) Timeout() time.Duration { return c.timeout }

// Admit opens a transaction, locks every night of the stay for the room type
// and runs fn while the locks are held. fn's error rolls everything back.
// Waiting for the locks is bounded by the coordinator timeout, after which
// ErrAdmissionTimeout is returned. fn gets the transaction's context and
// must use it for every statement.
func (c *Coordinator) Admit(ctx context.Context, roomTypeID int64, stay domain.Stay, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ctx, span := c.tracer.Start(ctx, "admission.Admit", trace.WithAttributes(
		attribute.Int64("room_type_id", roomTypeID),
		attribute.String("check_in", stay.FirstNight()),
		attribute.Int("nights", stay.Nights()),
	))
	defer span.End()

	lock := func(ctx context.Context, tx *gorm.DB) error {
		return c.locker.Lock(ctx, tx, roomTypeID, stay)
	}
	err := c.run(ctx, lock, fn)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	if errors.Is(err, ErrAdmissionTimeout) {
		span.SetStatus(codes.Error, "admission timeout")
		c.log.WithFields(logrus.Fields{
			"room_type_id": roomTypeID,
			"check_in":     stay.FirstNight(),
			"nights":       stay.Nights(),
		}).WithError(err).Warn("admission lock not acquired in time")
	}
	return err
}

// Exclusive runs fn in a transaction without locking a stay up front. fn
// takes the ledger locks it needs itself, in ascending room type and date
// order. Getting the transaction is bounded like Admit; on Postgres every
// row lock fn waits for is bounded by the same timeout.
func (c *Coordinator) Exclusive(ctx context.Context, name string, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ctx, span := c.tracer.Start(ctx, "admission.Exclusive", trace.WithAttributes(
		attribute.String("operation", name),
	))
	defer span.End()

	err := c.run(ctx, nil, fn)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrAdmissionTimeout) {
			c.log.WithField("operation", name).WithError(err).Warn("exclusive section timed out")
		}
	}
	return err
}

// errLockWait cancels a transaction whose wait budget ran out.
var errLockWait = errors.New("lock wait budget exhausted")

// run opens a transaction, takes the locks and runs fn. The coordinator
// timeout covers only the wait: getting a connection, BEGIN and lock. Once
// the locks are held fn runs under the caller's context alone.
func (c *Coordinator) run(ctx context.Context, lock, fn func(ctx context.Context, tx *gorm.DB) error) error {
	txCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	waitTimer := time.AfterFunc(c.timeout, func() { cancel(errLockWait) })
	defer waitTimer.Stop()

	started := time.Now()
	err := c.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if database.IsPostgres(tx) {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", c.timeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		if lock != nil {
			if err := lock(txCtx, tx); err != nil {
				return err
			}
		}
		// A stopped timer never fires; a fired one has cancelled txCtx.
		if !waitTimer.Stop() {
			return errLockWait
		}
		return fn(txCtx, tx)
	})
	if err != nil && (errors.Is(err, errLockWait) || errors.Is(context.Cause(txCtx), errLockWait) || isLockError(err)) {
		return fmt.Errorf("%w: waited %s", ErrAdmissionTimeout, time.Since(started).Round(time.Millisecond))
	}
	return err
}

func isLockError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgLockNotAvailable || pgErr.Code == pgDeadlockDetected
	}
	return false
}
