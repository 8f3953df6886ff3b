// Package mathutil provides common decimal helpers for currency amounts.
package mathutil

import (
	"github.com/iwvelando/coop-lending/pkg/constants"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(constants.PercentageMultiplier)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.DecimalPlaces)
}

// IsPositive reports whether val is strictly greater than zero.
func IsPositive(val decimal.Decimal) bool {
	return val.Sign() > 0
}

// ApplyPercentage applies a percentage to a value, e.g. 2.5% of 1000 = 25.
// The result is not rounded.
func ApplyPercentage(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(percentage).Div(hundred)
}

// ValidPercentage reports whether p lies within [0, 100].
func ValidPercentage(p decimal.Decimal) bool {
	return p.Sign() >= 0 && p.LessThanOrEqual(hundred)
}

// SplitEven divides total into n currency-rounded parts. Every part but the
// last is total/n rounded down to the cent; the last absorbs the residual so
// the parts always sum exactly to total and a non-negative total never yields
// a negative part.
func SplitEven(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}
	parts := make([]decimal.Decimal, n)
	share := total.Div(decimal.NewFromInt(int64(n))).RoundDown(constants.DecimalPlaces)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = share
		allocated = allocated.Add(share)
	}
	parts[n-1] = total.Sub(allocated)
	return parts
}

// Sum adds up a list of amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
