// README: Revenue store backed by PostgreSQL.
package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetForDate(ctx context.Context, parkingID int64, date time.Time) (*Revenue, error) {
	r := Revenue{ParkingID: parkingID}
	var day time.Time
	var amount string
	err := s.db.QueryRow(ctx, `
		SELECT id, date, amount::text, currency
		FROM revenues
		WHERE parking_id = $1 AND date = $2::date`,
		parkingID, FormatDate(date),
	).Scan(&r.ID, &day, &amount, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get revenue lot=%d date=%s: %w", parkingID, FormatDate(date), err)
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse revenue amount: %w", err)
	}
	r.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, date.Location())
	return &r, nil
}

// Upsert creates the (lot, date) row if absent and loads the stored row
// into r. An existing row keeps its accumulated amount.
func (s *Store) Upsert(ctx context.Context, r *Revenue) error {
	var amount string
	err := s.db.QueryRow(ctx, `
		INSERT INTO revenues (parking_id, date, amount, currency)
		VALUES ($1, $2::date, $3::numeric, $4)
		ON CONFLICT (parking_id, date) DO UPDATE SET currency = revenues.currency
		RETURNING id, amount::text, currency`,
		r.ParkingID, FormatDate(r.Date), r.Amount.StringFixed(2), r.Currency,
	).Scan(&r.ID, &amount, &r.Currency)
	if err != nil {
		return fmt.Errorf("upsert revenue lot=%d date=%s: %w", r.ParkingID, FormatDate(r.Date), err)
	}
	if r.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("parse revenue amount: %w", err)
	}
	return nil
}

// AddAmount increments the row in a single statement and returns the new total.
func (s *Store) AddAmount(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) (decimal.Decimal, error) {
	var total string
	err := s.db.QueryRow(ctx, `
		UPDATE revenues
		SET amount = amount + $3::numeric
		WHERE parking_id = $1 AND date = $2::date
		RETURNING amount::text`,
		parkingID, FormatDate(date), amount.StringFixed(2),
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("accumulate revenue lot=%d: %w", parkingID, err)
	}
	return decimal.NewFromString(total)
}

func (s *Store) SetAmount(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE revenues SET amount = $3::numeric
		WHERE parking_id = $1 AND date = $2::date`,
		parkingID, FormatDate(date), amount.StringFixed(2))
	if err != nil {
		return fmt.Errorf("set revenue lot=%d: %w", parkingID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Drifts lists every ledger row for date next to the sum of EXIT fees
// billed on that date on the lot's spots.
func (s *Store) Drifts(ctx context.Context, date time.Time) ([]Drift, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.parking_id,
		       r.amount::text,
		       COALESCE((
		           SELECT SUM(e.amount_paid)
		             FROM parking_events e
		             JOIN spots sp ON sp.lat = e.lat AND sp.lng = e.lng
		            WHERE sp.parking_id = r.parking_id
		              AND e.event_type = 'EXIT'
		              AND e.billed_on = r.date
		       ), 0)::text
		FROM revenues r
		WHERE r.date = $1::date
		ORDER BY r.parking_id`,
		FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("query revenue drift: %w", err)
	}
	defer rows.Close()

	var out []Drift
	for rows.Next() {
		var d Drift
		var ledger, events string
		if err := rows.Scan(&d.ParkingID, &ledger, &events); err != nil {
			return nil, err
		}
		if d.Ledger, err = decimal.NewFromString(ledger); err != nil {
			return nil, fmt.Errorf("parse ledger amount: %w", err)
		}
		if d.Events, err = decimal.NewFromString(events); err != nil {
			return nil, fmt.Errorf("parse event total: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
