package ledger

import "github.com/shopspring/decimal"

// RoundTo rounds v to the nearest multiple of rounding, half away from zero.
// A non-positive rounding leaves v unchanged.
func RoundTo(v, rounding decimal.Decimal) decimal.Decimal {
	if rounding.Sign() <= 0 {
		return v
	}
	return v.Div(rounding).Round(0).Mul(rounding)
}

// CompareDigits compares a and b after rounding their difference to digits
// decimal places. It returns -1, 0 or 1.
func CompareDigits(a, b decimal.Decimal, digits int32) int {
	return a.Sub(b).Round(digits).Sign()
}

// CompareRounding compares a and b after rounding their difference to the
// given rounding step (e.g. a currency's 0.05). It returns -1, 0 or 1.
func CompareRounding(a, b, rounding decimal.Decimal) int {
	return RoundTo(a.Sub(b), rounding).Sign()
}
