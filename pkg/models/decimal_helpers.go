package models

import "github.com/shopspring/decimal"

// NullFromFloat wraps a float64 as a valid nullable decimal
func NullFromFloat(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// GreaterThan reports a > b; false when either side is undefined
func GreaterThan(a, b decimal.NullDecimal) bool {
	return a.Valid && b.Valid && a.Decimal.GreaterThan(b.Decimal)
}

// LessThan reports a < b; false when either side is undefined
func LessThan(a, b decimal.NullDecimal) bool {
	return a.Valid && b.Valid && a.Decimal.LessThan(b.Decimal)
}

// Between reports lo < x < hi with the bounds ordered automatically.
// Any undefined operand makes the test false.
func Between(x, a, b decimal.NullDecimal) bool {
	if !x.Valid || !a.Valid || !b.Valid {
		return false
	}
	lo, hi := decimal.Min(a.Decimal, b.Decimal), decimal.Max(a.Decimal, b.Decimal)
	return x.Decimal.GreaterThan(lo) && x.Decimal.LessThan(hi)
}
