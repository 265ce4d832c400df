// README: Lot service answers location, sector, capacity and opening-hours queries.
package lot

import (
	"context"
	"time"

	"parking/internal/types"
)

type Service struct {
	store *Store
	loc   *time.Location
}

func NewService(store *Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc}
}

func (s *Service) FindByCoordinates(ctx context.Context, pos types.Point) (*Lot, error) {
	return s.store.FindByCoordinates(ctx, pos)
}

func (s *Service) FindBySector(ctx context.Context, sector string) (*Lot, error) {
	return s.store.FindBySector(ctx, sector)
}

// CapacityAndOccupancy reads capacity and today's occupancy for the lot at pos.
func (s *Service) CapacityAndOccupancy(ctx context.Context, pos types.Point, now time.Time) (Capacity, error) {
	return s.store.CapacityAndOccupancy(ctx, pos, StartOfDay(now, s.loc))
}

// AnyOpen reports whether at least one configured lot is open at `at`.
// The check is lot-agnostic: no sector is known when a vehicle enters.
func (s *Service) AnyOpen(ctx context.Context, at time.Time) (bool, error) {
	lots, err := s.store.List(ctx)
	if err != nil {
		return false, err
	}
	return AnyOpenAt(lots, at.In(s.loc)), nil
}

func AnyOpenAt(lots []Lot, at time.Time) bool {
	for _, l := range lots {
		if l.OpenAt(at) {
			return true
		}
	}
	return false
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
