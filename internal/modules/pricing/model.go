// README: Occupancy tiers that map a lot's occupancy rate to a price multiplier.
package pricing

import "github.com/shopspring/decimal"

// Tier applies Multiplier from MinRate (inclusive) up to the next tier.
type Tier struct {
	MinRate    int
	Multiplier decimal.Decimal
}

// Tiers is ordered from the highest band down.
var Tiers = []Tier{
	{MinRate: 75, Multiplier: decimal.RequireFromString("1.25")},
	{MinRate: 50, Multiplier: decimal.RequireFromString("1.10")},
	{MinRate: 25, Multiplier: decimal.RequireFromString("1.00")},
	{MinRate: 0, Multiplier: decimal.RequireFromString("0.90")},
}

// OccupancyRate is occupancy as a whole percentage of maxCapacity.
// Multiplication happens before division so small ratios are not lost.
func OccupancyRate(occupancy, maxCapacity int) int {
	if maxCapacity <= 0 {
		maxCapacity = 1
	}
	return occupancy * 100 / maxCapacity
}

func MultiplierForRate(rate int) decimal.Decimal {
	for _, t := range Tiers {
		if rate >= t.MinRate {
			return t.Multiplier
		}
	}
	return Tiers[len(Tiers)-1].Multiplier
}
