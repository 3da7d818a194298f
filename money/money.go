// Package money holds the rounding and formatting rules shared by every
// ledger in the simulation. Settled amounts always carry two decimals.
package money

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Places is the number of decimals kept on every settled amount.
const Places = 2

// Round rounds x half away from zero to two decimals. NaN and infinities
// are returned unchanged.
func Round(x float64) float64 {
	if !Finite(x) {
		return x
	}
	return decimal.NewFromFloat(x).Round(Places).InexactFloat64()
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// IsRounded reports whether x already carries at most two decimals.
func IsRounded(x float64) bool {
	return Round(x) == x
}

// Sum adds the values in decimal space and rounds the result. Any
// non-finite input makes the sum NaN.
func Sum(xs ...float64) float64 {
	if !Finite(xs...) {
		return math.NaN()
	}
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(decimal.NewFromFloat(x))
	}
	return total.Round(Places).InexactFloat64()
}

// Format renders x as a dollar amount with thousands separators, e.g. $1,234.50.
func Format(x float64) string {
	if x < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -x)
	}
	return "$" + humanize.FormatFloat("#,###.##", x)
}

// Percent renders a rate such as 0.045 as "4.50%".
func Percent(rate float64) string {
	return humanize.FormatFloat("#.##", rate*100) + "%"
}
