// README: Parking event store backed by PostgreSQL.
package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"parking/internal/types"
)

const (
	uniqueViolation = "23505"
	parkedSpotIndex = "parking_events_parked_spot"
	dateLayout      = "2006-01-02"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectColumns = `
	id, license_plate, lat, lng, entry_time, exit_time, event_type,
	price_multiplier::text, amount_paid::text, billed_on`

// Save upserts the event by id.
func (s *Store) Save(ctx context.Context, e *ParkingEvent) error {
	var lat, lng *float64
	if e.Position != nil {
		lat, lng = &e.Position.Lat, &e.Position.Lng
	}
	var billedOn *string
	if e.BilledOn != nil {
		d := e.BilledOn.Format(dateLayout)
		billedOn = &d
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO parking_events (
			id, license_plate, lat, lng, entry_time, exit_time,
			event_type, price_multiplier, amount_paid, billed_on
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::date)
		ON CONFLICT (id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			exit_time = EXCLUDED.exit_time,
			event_type = EXCLUDED.event_type,
			price_multiplier = EXCLUDED.price_multiplier,
			amount_paid = EXCLUDED.amount_paid,
			billed_on = EXCLUDED.billed_on`,
		string(e.ID),
		e.LicensePlate,
		lat, lng,
		e.EntryTime,
		e.ExitTime,
		string(e.Type),
		e.PriceMultiplier.String(),
		e.AmountPaid.String(),
		billedOn,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == parkedSpotIndex {
			return ErrSpotTaken
		}
		return ErrActiveVisit
	}
	if err != nil {
		return fmt.Errorf("save parking event %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) FindAllByLicensePlate(ctx context.Context, plate string) ([]ParkingEvent, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+`
		FROM parking_events
		WHERE license_plate = $1
		ORDER BY entry_time`, plate)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", plate, err)
	}
	defer rows.Close()

	var out []ParkingEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) FindActiveByLicensePlate(ctx context.Context, plate string) (*ParkingEvent, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+`
		FROM parking_events
		WHERE license_plate = $1 AND event_type <> 'EXIT'
		LIMIT 1`, plate)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) FindMostRecentByCoordinates(ctx context.Context, p types.Point) (*ParkingEvent, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+`
		FROM parking_events
		WHERE lat = $1 AND lng = $2
		ORDER BY entry_time DESC
		LIMIT 1`, p.Lat, p.Lng)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// FindParkedByCoordinates returns the vehicle currently PARKED at p.
func (s *Store) FindParkedByCoordinates(ctx context.Context, p types.Point) (*ParkingEvent, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+`
		FROM parking_events
		WHERE lat = $1 AND lng = $2 AND event_type = 'PARKED'
		LIMIT 1`, p.Lat, p.Lng)
	e, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvent(row pgx.Row) (ParkingEvent, error) {
	var e ParkingEvent
	var id, typ, multiplier, amount string
	var lat, lng *float64
	var exitTime, billedOn *time.Time
	err := row.Scan(&id, &e.LicensePlate, &lat, &lng, &e.EntryTime, &exitTime, &typ, &multiplier, &amount, &billedOn)
	if err != nil {
		return e, err
	}
	e.ID = types.ID(id)
	e.Type = Type(typ)
	e.ExitTime = exitTime
	e.BilledOn = billedOn
	if lat != nil && lng != nil {
		e.Position = &types.Point{Lat: *lat, Lng: *lng}
	}
	if e.PriceMultiplier, err = decimal.NewFromString(multiplier); err != nil {
		return e, fmt.Errorf("parse price_multiplier: %w", err)
	}
	if e.AmountPaid, err = decimal.NewFromString(amount); err != nil {
		return e, fmt.Errorf("parse amount_paid: %w", err)
	}
	return e, nil
}
