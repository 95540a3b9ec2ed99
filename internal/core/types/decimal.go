// Package types provides common numeric types for quantities and money.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity is an exact decimal product quantity.
// All balance comparisons are performed at 3-decimal granularity; the
// decimal representation itself carries full precision, so repeated
// fractional quantities never accumulate float noise.
type Quantity = decimal.Decimal

// Money is an exact decimal monetary value.
type Money = decimal.Decimal

// QuantityPlaces is the comparison granularity for stock balances.
const QuantityPlaces = 3

// MoneyPlaces is the display granularity for monetary values.
const MoneyPlaces = 2

// NewQuantityFromFloat converts a float to Quantity.
// Prefer NewQuantityFromString for values originating as text.
func NewQuantityFromFloat(f float64) Quantity {
	return decimal.NewFromFloat(f)
}

// NewQuantityFromString parses a decimal string into Quantity.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a decimal string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns a zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// RoundQuantity rounds a quantity to 3 decimal places for display,
// half away from zero. Balance sign checks use IsNegativeBalance,
// which rounds half toward positive infinity instead.
func RoundQuantity(q Quantity) Quantity {
	return q.Round(QuantityPlaces)
}

// RoundMoney rounds a monetary value to 2 decimal places.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// IsNegativeBalance reports whether a projected balance counts as
// negative after rounding to comparison granularity. The comparison
// rounds half toward positive infinity, so exactly -0.0005 still
// counts as zero while -0.0006 is negative.
func IsNegativeBalance(q Quantity) bool {
	scaled := q.Shift(QuantityPlaces)
	return scaled.Add(decimal.NewFromFloat(0.5)).Floor().IsNegative()
}
