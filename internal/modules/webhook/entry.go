// README: ENTRY handler opens a visit for a plate.
package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parking/internal/modules/event"
	"parking/internal/types"
)

type EntryHandler struct {
	events EventStore
	lots   LotQuery
	cfg    Config
	log    *zap.Logger
}

func NewEntryHandler(events EventStore, lots LotQuery, cfg Config, log *zap.Logger) *EntryHandler {
	return &EntryHandler{events: events, lots: lots, cfg: cfg.withDefaults(), log: orNop(log)}
}

// Handle records a new ENTRY row. The active-visit check and the insert are
// not atomic; the partial unique index on parking_events closes the gap.
// Entries arriving while no lot is open at the current time are dropped
// without error.
func (h *EntryHandler) Handle(ctx context.Context, in Event) error {
	if in.Type != event.TypeEntry {
		return ErrInvalidEventType
	}
	if in.LicensePlate == "" {
		return ErrMissingLicensePlate
	}
	if in.EntryTime == nil {
		return ErrMissingEntryTime
	}

	_, err := h.events.FindActiveByLicensePlate(ctx, in.LicensePlate)
	switch {
	case err == nil:
		return ErrLicensePlateConflict
	case !errors.Is(err, event.ErrNotFound):
		return fmt.Errorf("find active visit: %w", err)
	}

	now := h.cfg.Now()
	open, err := h.lots.AnyOpen(ctx, now)
	if err != nil {
		return fmt.Errorf("check opening hours: %w", err)
	}
	if !open {
		h.log.Info("entry dropped: no lot open",
			zap.String("plate", in.LicensePlate),
			zap.Time("entry_time", *in.EntryTime),
			zap.Time("checked_at", now))
		return nil
	}

	e := event.NewEntry(types.ID(uuid.NewString()), in.LicensePlate, *in.EntryTime)
	if err := h.events.Save(ctx, &e); err != nil {
		if errors.Is(err, event.ErrActiveVisit) {
			return ErrLicensePlateConflict
		}
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
