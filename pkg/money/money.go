// Package money converts between rupee amounts and gateway minor units.
package money

import "github.com/shopspring/decimal"

const minorUnitsPerMajor = 100

var hundred = decimal.NewFromInt(minorUnitsPerMajor)

// ToMinorUnits rounds a rupee amount to paise.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts paise back to rupees.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// LineTotal multiplies a unit price by quantity, rounded to two places.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}
