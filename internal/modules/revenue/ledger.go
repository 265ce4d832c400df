// README: Revenue ledger: lazy daily rows and additive accumulation.
package revenue

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetForDate(ctx context.Context, parkingID int64, date time.Time) (*Revenue, error)
	Upsert(ctx context.Context, r *Revenue) error
	AddAmount(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) (decimal.Decimal, error)
}

type Ledger struct {
	repo     Repository
	currency string
	loc      *time.Location
	now      func() time.Time
}

func NewLedger(repo Repository, currency string, loc *time.Location, now func() time.Time) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{repo: repo, currency: currency, loc: loc, now: now}
}

// Today is the ledger date for the current clock in the ledger's zone.
func (l *Ledger) Today() time.Time {
	t := l.now().In(l.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, l.loc)
}

func (l *Ledger) Location() *time.Location {
	return l.loc
}

// EnsureDailyRow returns today's row for the lot, creating it with a zero
// amount when absent. Safe to call repeatedly and concurrently.
func (l *Ledger) EnsureDailyRow(ctx context.Context, parkingID int64) (*Revenue, error) {
	today := l.Today()
	r, err := l.repo.GetForDate(ctx, parkingID, today)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	r = &Revenue{ParkingID: parkingID, Date: today, Amount: decimal.Zero, Currency: l.currency}
	if err := l.repo.Upsert(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Accumulate adds amount to today's row. A missing row is ErrNotFound; it
// is never created here.
func (l *Ledger) Accumulate(ctx context.Context, parkingID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.AccumulateOn(ctx, parkingID, l.Today(), amount)
}

// AccumulateOn adds amount to the row for date, the day the caller billed
// the fee on.
func (l *Ledger) AccumulateOn(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) (decimal.Decimal, error) {
	return l.repo.AddAmount(ctx, parkingID, date, amount)
}

// AmountFor reads the total for one lot and day; a missing row reads as zero.
func (l *Ledger) AmountFor(ctx context.Context, parkingID int64, date time.Time) (decimal.Decimal, error) {
	r, err := l.repo.GetForDate(ctx, parkingID, date)
	if errors.Is(err, ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return r.Amount, nil
}
