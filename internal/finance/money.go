// Package finance computes savings, amortization schedules and their effective cost.
package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// compoundPrecision bounds intermediate growth factors; money is rounded to cents separately.
const compoundPrecision = 18

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// cents rounds half away from zero to two places.
func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// compound returns base^n for n ≥ 0, rounding at each step.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	f := one
	for range n {
		f = f.Mul(base).Round(compoundPrecision)
	}
	return f
}

func pctToFraction(pct float64) float64 { return pct / 100 }

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// addMonths returns t moved k calendar months, clamped to the last day of the
// target month so that Jan 31 + 1 month is Feb 28/29.
func addMonths(t time.Time, k int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(k), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// MonthlyToAnnual converts a monthly rate fraction to its compounded annual equivalent.
func MonthlyToAnnual(r float64) float64 {
	return math.Pow(1+r, 12) - 1
}

// AnnualToMonthly converts an annual rate fraction to its compounded monthly equivalent.
func AnnualToMonthly(a float64) float64 {
	return math.Pow(1+a, 1.0/12) - 1
}
