// README: PARKED handler binds a visit to a spot under a spot lock and an idempotency claim.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"parking/internal/modules/event"
	"parking/internal/modules/lot"
	"parking/internal/modules/spotlock"
	"parking/internal/types"
)

type ParkedHandler struct {
	events EventStore
	lots   LotQuery
	pricer Pricer
	locker spotlock.Locker
	idem   spotlock.IdempotencyStore
	ledger Ledger
	cfg    Config
	log    *zap.Logger
}

func NewParkedHandler(
	events EventStore,
	lots LotQuery,
	pricer Pricer,
	locker spotlock.Locker,
	idem spotlock.IdempotencyStore,
	ledger Ledger,
	cfg Config,
	log *zap.Logger,
) *ParkedHandler {
	return &ParkedHandler{
		events: events,
		lots:   lots,
		pricer: pricer,
		locker: locker,
		idem:   idem,
		ledger: ledger,
		cfg:    cfg.withDefaults(),
		log:    orNop(log),
	}
}

func (h *ParkedHandler) Handle(ctx context.Context, in Event) error {
	if in.Type != event.TypeParked {
		return ErrInvalidEventType
	}
	if in.LicensePlate == "" {
		return ErrMissingLicensePlate
	}
	pos, ok := in.Position()
	if !ok || !pos.Valid() {
		return ErrInvalidCoordinates
	}

	l, err := h.lots.FindByCoordinates(ctx, pos)
	if errors.Is(err, lot.ErrNotFound) {
		return ErrLotNotFound
	}
	if err != nil {
		return fmt.Errorf("find lot: %w", err)
	}

	eventID := in.ID
	if eventID == "" {
		eventID = in.LicensePlate + strconv.FormatInt(h.cfg.Now().UnixMilli(), 10)
	}
	claimed, err := h.idem.CheckAndMarkIdempotency(ctx, pos, eventID, h.cfg.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("claim event: %w", err)
	}
	if !claimed {
		return ErrDuplicateEvent
	}

	if err := h.park(ctx, in.LicensePlate, pos, l); err != nil {
		// A failed attempt must not block a genuine redelivery.
		if _, relErr := h.idem.ReleaseIdempotencyKey(context.WithoutCancel(ctx), pos, eventID); relErr != nil {
			h.log.Warn("release idempotency claim failed",
				zap.String("event_id", eventID), zap.Error(relErr))
		}
		return err
	}
	return nil
}

func (h *ParkedHandler) park(ctx context.Context, plate string, pos types.Point, l *lot.Lot) error {
	acquired, err := h.locker.AcquireLock(ctx, pos, plate, h.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire spot lock: %w", err)
	}
	if !acquired {
		return ErrSpotOccupied
	}
	defer func() {
		released, err := h.locker.ReleaseLock(context.WithoutCancel(ctx), pos, plate)
		if err != nil || !released {
			h.log.Warn("spot lock not released",
				zap.String("spot", pos.Key()), zap.String("plate", plate), zap.Error(err))
		}
	}()

	// The spot may have been taken between the claim and the lock.
	_, err = h.events.FindParkedByCoordinates(ctx, pos)
	switch {
	case err == nil:
		return ErrSpotOccupied
	case err != nil && !errors.Is(err, event.ErrNotFound):
		return fmt.Errorf("check spot: %w", err)
	}

	var (
		multiplier decimal.Decimal
		entry      event.ParkingEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := h.pricer.Multiplier(gctx, pos)
		if err != nil {
			return fmt.Errorf("price multiplier: %w", err)
		}
		multiplier = m
		return nil
	})
	g.Go(func() error {
		events, err := h.events.FindAllByLicensePlate(gctx, plate)
		if err != nil {
			return fmt.Errorf("load visits: %w", err)
		}
		e, err := event.Select(events, event.TypeEntry)
		if errors.Is(err, event.ErrNotFound) {
			return ErrEntryEventNotFound
		}
		entry = e
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	parked, err := entry.Park(pos, multiplier)
	if err != nil {
		return fmt.Errorf("park %s: %w", entry.ID, err)
	}
	if err := h.events.Save(ctx, &parked); err != nil {
		if errors.Is(err, event.ErrSpotTaken) {
			return ErrSpotOccupied
		}
		return fmt.Errorf("save parked: %w", err)
	}
	if _, err := h.ledger.EnsureDailyRow(ctx, l.ID); err != nil {
		return fmt.Errorf("open daily revenue: %w", err)
	}

	h.log.Info("vehicle parked",
		zap.String("plate", plate),
		zap.String("spot", pos.Key()),
		zap.String("sector", l.Sector),
		zap.String("multiplier", multiplier.String()))
	return nil
}
