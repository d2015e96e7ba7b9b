package events

import (
	"context"
	"time"

	"hotelbooking/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Breaker stops calling a sink that keeps failing so requests do not pay
// for a broker outage.
type Breaker struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Publisher, log logrus.FieldLogger) *Breaker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Publish(ctx context.Context, ev domain.ReservationEvent) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Publish(ctx, ev)
	})
	return err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
