// README: Garage sector (lot) reference data.
package lot

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("parking lot not found")

type Lot struct {
	ID                   int64
	Sector               string
	BasePrice            decimal.Decimal
	MaxCapacity          int
	OpenHour             time.Duration // offset from midnight
	CloseHour            time.Duration
	DurationLimitMinutes int
}

// Capacity is the pricing input for one lot; Occupancy counts today's
// visits that have not exited.
type Capacity struct {
	MaxCapacity int
	Occupancy   int
}

// OpenAt reports whether at's time of day falls in [OpenHour, CloseHour).
// A window whose close is not after its open wraps midnight; equal bounds
// mean the lot never closes.
func (l Lot) OpenAt(at time.Time) bool {
	tod := sinceMidnight(at)
	switch {
	case l.OpenHour == l.CloseHour:
		return true
	case l.OpenHour < l.CloseHour:
		return tod >= l.OpenHour && tod < l.CloseHour
	default:
		return tod >= l.OpenHour || tod < l.CloseHour
	}
}

func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
