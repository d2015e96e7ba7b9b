package reservation

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultSweepInterval = time.Minute

// Sweeper periodically expires unpaid reservations and completes stays whose
// check-out has passed.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	log      logrus.FieldLogger
}

func NewSweeper(svc *Service, interval time.Duration, log logrus.FieldLogger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sweeper{svc: svc, interval: interval, log: log}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Sweeper) SweepOnce(ctx context.Context) (expired, completed int) {
	expired, err := w.svc.ExpirePending(ctx)
	if err != nil {
		w.log.WithError(err).Error("payment timeout sweep failed")
	}
	completed, err = w.svc.CompleteElapsed(ctx)
	if err != nil {
		w.log.WithError(err).Error("completion sweep failed")
	}
	if expired > 0 || completed > 0 {
		w.log.WithFields(logrus.Fields{
			"expired":   expired,
			"completed": completed,
		}).Info("reservation sweep finished")
	}
	return expired, completed
}
