// README: Proportional, duration-based parking fee.
package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// periodPrecision is the number of fractional digits kept when dividing the
// stay into billing periods.
const periodPrecision = 10

var ErrInvalidDurationLimit = errors.New("duration limit must be positive")

// Fee charges basePrice per durationLimitMinutes, proportionally, scaled by
// multiplier. Duration is counted in whole minutes. There is no cap on the
// number of periods. Rounding is half-up at both steps.
func Fee(entry, exit time.Time, basePrice decimal.Decimal, durationLimitMinutes int, multiplier decimal.Decimal) (decimal.Decimal, error) {
	if durationLimitMinutes <= 0 {
		return decimal.Zero, ErrInvalidDurationLimit
	}
	minutes := int64(exit.Sub(entry) / time.Minute)
	periods := decimal.NewFromInt(minutes).DivRound(decimal.NewFromInt(int64(durationLimitMinutes)), periodPrecision)
	return periods.Mul(basePrice).Mul(multiplier).Round(2), nil
}
