// Package events fans committed reservation changes out to RabbitMQ and to
// the admin live feed.
package events

import (
	"context"
	"errors"

	"hotelbooking/internal/domain"
)

// Publisher delivers reservation events after the change has committed.
// Delivery is best effort; a failed publish never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, ev domain.ReservationEvent) error
}

type Noop struct{}

func (Noop) Publish(context.Context, domain.ReservationEvent) error { return nil }

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev domain.ReservationEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
