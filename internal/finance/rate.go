package finance

import (
	"math"

	"github.com/sells-group/solar-viability/internal/model"
)

// ResolveMonthlyRate returns the monthly interest rate, as a fraction, for the
// financing terms. An explicit monthly rate wins; otherwise the spread is
// added to SELIC on the spread's basis:
//
//	annual:  r = (1 + selic + spread)^(1/12) - 1
//	monthly: r = (1 + selic)^(1/12) - 1 + spread
func ResolveMonthlyRate(in model.FinancialInputs, selicAnnualPct float64) (float64, error) {
	var r float64
	switch {
	case in.MonthlyRate != nil:
		r = pctToFraction(*in.MonthlyRate)
	case in.SpreadBasis == model.SpreadMonthly:
		r = AnnualToMonthly(pctToFraction(selicAnnualPct)) + pctToFraction(in.Spread)
	default:
		r = AnnualToMonthly(pctToFraction(selicAnnualPct + in.Spread))
	}
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= -1 {
		return 0, model.NewFinancialConfigurationError("financial.monthly_rate", "resolved rate %.6f%% is not greater than -100%%", r*100)
	}
	return r, nil
}
