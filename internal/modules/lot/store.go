// README: Lot store backed by PostgreSQL (lots, spots, occupancy).
package lot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"parking/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const lotColumns = `p.id, p.sector, p.base_price::text, p.max_capacity,
	p.open_hour, p.close_hour, p.duration_limit_minutes`

func (s *Store) FindByCoordinates(ctx context.Context, pos types.Point) (*Lot, error) {
	row := s.db.QueryRow(ctx, `SELECT `+lotColumns+`
		FROM spots s
		JOIN parkings p ON p.id = s.parking_id
		WHERE s.lat = $1 AND s.lng = $2`, pos.Lat, pos.Lng)
	return scanOne(row)
}

func (s *Store) FindBySector(ctx context.Context, sector string) (*Lot, error) {
	row := s.db.QueryRow(ctx, `SELECT `+lotColumns+`
		FROM parkings p
		WHERE p.sector = $1`, sector)
	return scanOne(row)
}

func (s *Store) List(ctx context.Context) ([]Lot, error) {
	rows, err := s.db.Query(ctx, `SELECT `+lotColumns+` FROM parkings p ORDER BY p.sector`)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var out []Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CapacityAndOccupancy counts non-EXIT visits whose entry falls in
// [dayStart, dayStart+24h) on any spot of the lot at pos.
func (s *Store) CapacityAndOccupancy(ctx context.Context, pos types.Point, dayStart time.Time) (Capacity, error) {
	var c Capacity
	err := s.db.QueryRow(ctx, `
		SELECT p.max_capacity,
		       (SELECT COUNT(*)
		          FROM parking_events e
		          JOIN spots s2 ON s2.lat = e.lat AND s2.lng = e.lng
		         WHERE s2.parking_id = p.id
		           AND e.event_type <> 'EXIT'
		           AND e.entry_time >= $3 AND e.entry_time < $4)
		FROM spots s
		JOIN parkings p ON p.id = s.parking_id
		WHERE s.lat = $1 AND s.lng = $2`,
		pos.Lat, pos.Lng, dayStart, dayStart.Add(24*time.Hour),
	).Scan(&c.MaxCapacity, &c.Occupancy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Capacity{}, ErrNotFound
	}
	if err != nil {
		return Capacity{}, fmt.Errorf("capacity at %s: %w", pos.Key(), err)
	}
	return c, nil
}

// Save upserts a lot by sector. Used by the garage sync process and tests.
func (s *Store) Save(ctx context.Context, l *Lot) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO parkings (sector, base_price, max_capacity, open_hour, close_hour, duration_limit_minutes)
		VALUES ($1, $2::numeric, $3, $4, $5, $6)
		ON CONFLICT (sector) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			max_capacity = EXCLUDED.max_capacity,
			open_hour = EXCLUDED.open_hour,
			close_hour = EXCLUDED.close_hour,
			duration_limit_minutes = EXCLUDED.duration_limit_minutes
		RETURNING id`,
		l.Sector, l.BasePrice.String(), l.MaxCapacity,
		toPgTime(l.OpenHour), toPgTime(l.CloseHour), l.DurationLimitMinutes,
	).Scan(&l.ID)
}

func (s *Store) AddSpot(ctx context.Context, lotID int64, pos types.Point) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO spots (parking_id, lat, lng) VALUES ($1, $2, $3)
		ON CONFLICT (lat, lng) DO UPDATE SET parking_id = EXCLUDED.parking_id`,
		lotID, pos.Lat, pos.Lng)
	return err
}

func scanOne(row pgx.Row) (*Lot, error) {
	l, err := scanLot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanLot(row pgx.Row) (Lot, error) {
	var l Lot
	var basePrice string
	var open, closeAt pgtype.Time
	if err := row.Scan(&l.ID, &l.Sector, &basePrice, &l.MaxCapacity, &open, &closeAt, &l.DurationLimitMinutes); err != nil {
		return l, err
	}
	price, err := decimal.NewFromString(basePrice)
	if err != nil {
		return l, fmt.Errorf("parse base_price: %w", err)
	}
	l.BasePrice = price
	l.OpenHour = time.Duration(open.Microseconds) * time.Microsecond
	l.CloseHour = time.Duration(closeAt.Microseconds) * time.Microsecond
	return l, nil
}

func toPgTime(d time.Duration) pgtype.Time {
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}
