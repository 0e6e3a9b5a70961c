package finance

import "math"

// NPV discounts flows[t] at rate per period, t starting at 0.
func NPV(rate float64, flows []float64) float64 {
	var v float64
	d := 1.0
	for _, f := range flows {
		v += f / d
		d *= 1 + rate
	}
	return v
}

// IRR finds the per-period rate where NPV is zero by bisection. It reports
// false when the flows have no sign change in (-99.99%, 1000%].
func IRR(flows []float64) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	lo, hi := -0.9999, 1.0
	flo := NPV(lo, flows)
	fhi := NPV(hi, flows)
	for flo*fhi > 0 && hi < 10 {
		hi *= 2
		fhi = NPV(hi, flows)
	}
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, false
	}
	if flo == 0 {
		return lo, true
	}

	for range 300 {
		mid := (lo + hi) / 2
		fm := NPV(mid, flows)
		if fm == 0 || (hi-lo)/2 < 1e-12 {
			return mid, true
		}
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}
