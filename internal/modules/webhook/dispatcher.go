// README: Dispatcher routes a webhook delivery to its lifecycle handler.
package webhook

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"parking/internal/apperr"
	"parking/internal/modules/event"
)

type Dispatcher struct {
	entry  Handler
	parked Handler
	exit   Handler
	sem    *semaphore.Weighted
	log    *zap.Logger
}

// NewDispatcher caps concurrently processed deliveries at maxInFlight.
func NewDispatcher(entry, parked, exit Handler, maxInFlight int64, log *zap.Logger) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 10
	}
	return &Dispatcher{
		entry:  entry,
		parked: parked,
		exit:   exit,
		sem:    semaphore.NewWeighted(maxInFlight),
		log:    orNop(log),
	}
}

func (d *Dispatcher) Execute(ctx context.Context, in Event) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer d.sem.Release(1)

	start := time.Now()
	var err error
	switch in.Type {
	case event.TypeEntry:
		err = d.entry.Handle(ctx, in)
	case event.TypeParked:
		err = d.parked.Handle(ctx, in)
	case event.TypeExit:
		err = d.exit.Handle(ctx, in)
	default:
		err = ErrInvalidEventType
	}

	fields := []zap.Field{
		zap.String("event_type", string(in.Type)),
		zap.String("plate", in.LicensePlate),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		ae := apperr.As(err)
		fields = append(fields, zap.String("code", ae.Code), zap.String("category", string(ae.Category)), zap.Error(err))
		if ae.Category == apperr.CategoryPersistence {
			d.log.Error("webhook failed", fields...)
		} else {
			d.log.Info("webhook rejected", fields...)
		}
		return err
	}
	d.log.Debug("webhook handled", fields...)
	return nil
}
