// README: Pricing service computes the occupancy-driven price multiplier.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"parking/internal/modules/lot"
	"parking/internal/types"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

type CapacityReader interface {
	CapacityAndOccupancy(ctx context.Context, pos types.Point, now time.Time) (lot.Capacity, error)
}

type Service struct {
	capacity CapacityReader
	now      func() time.Time
}

func NewService(capacity CapacityReader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{capacity: capacity, now: now}
}

// Multiplier reads the lot's capacity and today's occupancy at pos. A spot
// with no capacity data prices at the lowest tier.
func (s *Service) Multiplier(ctx context.Context, pos types.Point) (decimal.Decimal, error) {
	if !pos.Valid() {
		return decimal.Zero, ErrInvalidCoordinates
	}
	c, err := s.capacity.CapacityAndOccupancy(ctx, pos, s.now())
	if errors.Is(err, lot.ErrNotFound) {
		c = lot.Capacity{MaxCapacity: 1, Occupancy: 0}
	} else if err != nil {
		return decimal.Zero, err
	}
	return MultiplierForRate(OccupancyRate(c.Occupancy, c.MaxCapacity)), nil
}
