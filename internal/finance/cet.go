package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
)

// iofMaxDays caps the daily IOF at one year (Decreto 6.306, art. 7).
const iofMaxDays = 365

// IOFRates are the IOF percentages levied on a credit operation.
type IOFRates struct {
	FlatPct  float64
	DailyPct float64
}

// DefaultIOF is the individual-borrower IOF: 0.38% flat plus 0.0082% per day.
var DefaultIOF = IOFRates{FlatPct: 0.38, DailyPct: 0.0082}

// IOF computes the tax on a schedule: the flat rate on the financed amount plus
// the daily rate on each principal amortization for the days it was
// outstanding, capped at a year.
func IOF(schedule []model.PaymentScheduleEntry, financed decimal.Decimal, start time.Time, rates IOFRates) decimal.Decimal {
	flat := financed.Mul(decimal.NewFromFloat(rates.FlatPct)).Div(hundred)
	daily := decimal.NewFromFloat(rates.DailyPct).Div(hundred)

	total := flat
	for _, e := range schedule {
		days := int64(math.Round(e.DueDate.Sub(start).Hours() / 24))
		days = max(0, min(days, iofMaxDays))
		total = total.Add(e.PrincipalAmount.Mul(daily).Mul(decimal.NewFromInt(days)))
	}
	return cents(total)
}

// CET returns the monthly and annualized effective cost, as percentages, of
// receiving netDisbursed and paying the schedule's installments. It reports
// false when no rate balances the flows.
func CET(schedule []model.PaymentScheduleEntry, netDisbursed decimal.Decimal) (monthlyPct, annualPct float64, ok bool) {
	flows := make([]float64, 0, len(schedule)+1)
	flows = append(flows, -netDisbursed.InexactFloat64())
	for _, e := range schedule {
		flows = append(flows, e.TotalAmount.InexactFloat64())
	}
	m, ok := IRR(flows)
	if !ok {
		return 0, 0, false
	}
	return round(m*100, 4), round(MonthlyToAnnual(m)*100, 4), true
}

// Summarize totals a schedule and derives its effective cost and the net
// monthly cash flow against the customer's savings. A negative cash flow is
// reported as is.
func Summarize(schedule []model.PaymentScheduleEntry, financed, monthlySavings, originationFee, iof decimal.Decimal, monthlyRate float64) model.ScheduleSummary {
	s := model.ScheduleSummary{
		FinancedAmount: financed,
		MonthlyRatePct: round(monthlyRate*100, 6),
		AnnualRatePct:  round(MonthlyToAnnual(monthlyRate)*100, 4),
		TotalPaid:      decimal.Zero,
		TotalInterest:  decimal.Zero,
		OriginationFee: originationFee,
		IOF:            iof,
	}
	for _, e := range schedule {
		s.TotalPaid = s.TotalPaid.Add(e.TotalAmount)
		s.TotalInterest = s.TotalInterest.Add(e.InterestAmount)
	}
	if len(schedule) > 0 {
		s.FirstInstallment = schedule[0].TotalAmount
		s.LastInstallment = schedule[len(schedule)-1].TotalAmount
	}
	s.NetMonthlyCashFlow = monthlySavings.Sub(s.FirstInstallment)

	if m, a, ok := CET(schedule, financed.Sub(originationFee).Sub(iof)); ok {
		s.CETMonthly, s.CET = m, a
	} else {
		s.CETMonthly, s.CET = s.MonthlyRatePct, s.AnnualRatePct
	}
	return s
}
