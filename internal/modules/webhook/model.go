// README: Inbound webhook event and the ports the handlers consume.
package webhook

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"parking/internal/modules/event"
	"parking/internal/modules/lot"
	"parking/internal/modules/revenue"
	"parking/internal/types"
)

// Event is one inbound delivery. Optional fields are nil when absent.
type Event struct {
	ID           string
	LicensePlate string
	Lat          *float64
	Lng          *float64
	EntryTime    *time.Time
	ExitTime     *time.Time
	Type         event.Type
}

// Position returns the coordinates when both are present.
func (e Event) Position() (types.Point, bool) {
	if e.Lat == nil || e.Lng == nil {
		return types.Point{}, false
	}
	return types.Point{Lat: *e.Lat, Lng: *e.Lng}, true
}

type Handler interface {
	Handle(ctx context.Context, in Event) error
}

type EventStore interface {
	Save(ctx context.Context, e *event.ParkingEvent) error
	FindAllByLicensePlate(ctx context.Context, plate string) ([]event.ParkingEvent, error)
	FindActiveByLicensePlate(ctx context.Context, plate string) (*event.ParkingEvent, error)
	FindParkedByCoordinates(ctx context.Context, pos types.Point) (*event.ParkingEvent, error)
}

type LotQuery interface {
	FindByCoordinates(ctx context.Context, pos types.Point) (*lot.Lot, error)
	AnyOpen(ctx context.Context, at time.Time) (bool, error)
}

type Pricer interface {
	Multiplier(ctx context.Context, pos types.Point) (decimal.Decimal, error)
}

type Ledger interface {
	Today() time.Time
	EnsureDailyRow(ctx context.Context, parkingID int64) (*revenue.Revenue, error)
	AccumulateOn(ctx context.Context, parkingID int64, date time.Time, amount decimal.Decimal) (decimal.Decimal, error)
}

type Config struct {
	LockTTL        time.Duration
	IdempotencyTTL time.Duration
	MaxInFlight    int64
	Currency       string
	Now            func() time.Time
}

func (c Config) withDefaults() Config {
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Second
	}
	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = 24 * time.Hour
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 10
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
