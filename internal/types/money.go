// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

// Money keeps two fractional digits; Round applies half-up.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(2), Currency: currency}
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
