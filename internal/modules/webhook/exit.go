// README: EXIT handler closes a visit, bills it and credits the lot's daily revenue.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parking/internal/modules/event"
	"parking/internal/modules/lot"
	"parking/internal/modules/pricing"
	"parking/internal/modules/revenue"
	"parking/internal/modules/spotlock"
	"parking/internal/queue"
	"parking/internal/types"
)

type ExitHandler struct {
	events    EventStore
	lots      LotQuery
	idem      spotlock.IdempotencyStore
	ledger    Ledger
	publisher queue.Publisher
	cfg       Config
	log       *zap.Logger
}

func NewExitHandler(
	events EventStore,
	lots LotQuery,
	idem spotlock.IdempotencyStore,
	ledger Ledger,
	publisher queue.Publisher,
	cfg Config,
	log *zap.Logger,
) *ExitHandler {
	if publisher == nil {
		publisher = queue.Nop{}
	}
	return &ExitHandler{
		events:    events,
		lots:      lots,
		idem:      idem,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		log:       orNop(log),
	}
}

// Handle saves the EXIT row and accumulates revenue concurrently. The two
// writes share no transaction; revenue.Reconciler repairs a half-applied exit.
// Concurrent deliveries closing the same visit race for one claim keyed on
// the visit id; only the winner writes.
func (h *ExitHandler) Handle(ctx context.Context, in Event) error {
	if in.Type != event.TypeExit {
		return ErrInvalidEventType
	}
	if in.LicensePlate == "" {
		return ErrMissingLicensePlate
	}
	if in.ExitTime == nil {
		return ErrMissingExitTime
	}

	events, err := h.events.FindAllByLicensePlate(ctx, in.LicensePlate)
	if err != nil {
		return fmt.Errorf("load visits: %w", err)
	}
	parked, err := event.Select(events, event.TypeParked)
	if errors.Is(err, event.ErrNotFound) || parked.Position == nil {
		return ErrNoParkedEventFound
	}

	l, err := h.lots.FindByCoordinates(ctx, *parked.Position)
	if errors.Is(err, lot.ErrNotFound) {
		return ErrLotNotFound
	}
	if err != nil {
		return fmt.Errorf("find lot: %w", err)
	}

	fee, err := pricing.Fee(parked.EntryTime, *in.ExitTime, l.BasePrice, l.DurationLimitMinutes, parked.PriceMultiplier)
	if errors.Is(err, pricing.ErrInvalidDurationLimit) {
		return ErrInvalidDurationLimit
	}
	if err != nil {
		return err
	}
	exited, err := parked.Exit(*in.ExitTime, fee)
	if err != nil {
		return fmt.Errorf("exit %s: %w", parked.ID, err)
	}
	billedOn := h.ledger.Today()
	exited = exited.Bill(billedOn)

	pos := *parked.Position
	claimID := exitClaimPrefix + string(parked.ID)
	claimed, err := h.idem.CheckAndMarkIdempotency(ctx, pos, claimID, h.cfg.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("claim exit: %w", err)
	}
	if !claimed {
		return ErrDuplicateEvent
	}
	if err := h.settle(ctx, &exited, l.ID, billedOn, fee); err != nil {
		if _, relErr := h.idem.ReleaseIdempotencyKey(context.WithoutCancel(ctx), pos, claimID); relErr != nil {
			h.log.Warn("release exit claim failed",
				zap.String("event_id", claimID), zap.Error(relErr))
		}
		return err
	}
	h.notify(ctx, exited, l, fee)
	return nil
}

const exitClaimPrefix = "exit:"

func (h *ExitHandler) settle(ctx context.Context, exited *event.ParkingEvent, parkingID int64, billedOn time.Time, fee decimal.Decimal) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.events.Save(gctx, exited); err != nil {
			return fmt.Errorf("save exit: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		_, err := h.ledger.AccumulateOn(gctx, parkingID, billedOn, fee)
		if errors.Is(err, revenue.ErrNotFound) {
			return ErrRevenueNotFound
		}
		if err != nil {
			return fmt.Errorf("accumulate revenue: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (h *ExitHandler) notify(ctx context.Context, exited event.ParkingEvent, l *lot.Lot, fee decimal.Decimal) {
	paid := types.NewMoney(fee, h.cfg.Currency)
	h.log.Info("vehicle exited",
		zap.String("plate", exited.LicensePlate),
		zap.String("sector", l.Sector),
		zap.Stringer("amount", paid))

	msg := queue.ExitedEvent{
		EventID:         string(exited.ID),
		LicensePlate:    exited.LicensePlate,
		ParkingID:       l.ID,
		Sector:          l.Sector,
		Lat:             exited.Position.Lat,
		Lng:             exited.Position.Lng,
		EntryTime:       exited.EntryTime.UTC().Format(time.RFC3339),
		ExitTime:        exited.ExitTime.UTC().Format(time.RFC3339),
		PriceMultiplier: exited.PriceMultiplier.String(),
		AmountPaid:      paid.Amount.StringFixed(2),
		Currency:        paid.Currency,
	}
	if err := h.publisher.PublishExited(ctx, msg); err != nil {
		h.log.Warn("exit notification not published", zap.String("plate", exited.LicensePlate), zap.Error(err))
	}
}
