// README: Reconciler repairs ledger rows that drifted from recorded exit fees.
package revenue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DriftStore interface {
	Drifts(ctx context.Context, date time.Time) ([]Drift, error)
	SetAmount(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) error
}

// Reconciler closes the gap left when an exit writes the event but not the
// ledger (or the reverse). A drift is corrected only after it is observed
// unchanged on two consecutive passes, so an exit still between its two
// writes is never mistaken for a lost one.
type Reconciler struct {
	store  DriftStore
	ledger *Ledger
	every  time.Duration
	log    *zap.Logger

	seen map[int64]decimal.Decimal
}

func NewReconciler(store DriftStore, ledger *Ledger, every time.Duration, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, ledger: ledger, every: every, log: log, seen: make(map[int64]decimal.Decimal)}
}

// ReconcileOnce runs a single pass over today's rows and returns how many
// rows were rewritten.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	today := r.ledger.Today()
	drifts, err := r.store.Drifts(ctx, today)
	if err != nil {
		return 0, err
	}

	next := make(map[int64]decimal.Decimal)
	fixed := 0
	for _, d := range drifts {
		diff := d.Diff()
		if diff.IsZero() {
			continue
		}
		prev, ok := r.seen[d.ParkingID]
		if !ok || !prev.Equal(diff) {
			next[d.ParkingID] = diff
			continue
		}
		if err := r.store.SetAmount(ctx, d.ParkingID, today, d.Events); err != nil {
			r.log.Error("revenue reconcile failed",
				zap.Int64("parking_id", d.ParkingID), zap.Error(err))
			next[d.ParkingID] = diff
			continue
		}
		r.log.Warn("revenue ledger corrected",
			zap.Int64("parking_id", d.ParkingID),
			zap.String("date", FormatDate(today)),
			zap.String("ledger", d.Ledger.StringFixed(2)),
			zap.String("events", d.Events.StringFixed(2)))
		fixed++
	}
	r.seen = next
	return fixed, nil
}

func (r *Reconciler) RunReconcileTicker(ctx context.Context) {
	if r.every <= 0 {
		return
	}
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("revenue reconcile pass failed", zap.Error(err))
			}
		}
	}
}
