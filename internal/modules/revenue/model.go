// README: Daily revenue ledger definitions (one row per lot per day).
package revenue

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("revenue row not found")

const dateLayout = "2006-01-02"

type Revenue struct {
	ID        int64
	ParkingID int64
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
}

// Drift compares a lot's ledger amount with the sum of its recorded exit fees.
type Drift struct {
	ParkingID int64
	Ledger    decimal.Decimal
	Events    decimal.Decimal
}

func (d Drift) Diff() decimal.Decimal {
	return d.Events.Sub(d.Ledger)
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, loc)
}
