package finance

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
)

// GenerateSchedule builds the installment plan for financed at monthlyRate (a
// fraction) over periods months. The first installment is due one month after
// start. Σ principal always equals financed to the cent and the final
// remaining balance is zero.
func GenerateSchedule(financed decimal.Decimal, monthlyRate float64, periods int, system model.AmortizationSystem, start time.Time) ([]model.PaymentScheduleEntry, error) {
	if !financed.IsPositive() {
		return nil, model.NewFinancialConfigurationError("financial.investment", "financed amount must be positive, got %s", financed)
	}
	if periods < 1 || periods > model.MaxInstallments {
		return nil, model.NewFinancialConfigurationError("financial.periods", "must be between 1 and %d, got %d", model.MaxInstallments, periods)
	}
	if math.IsNaN(monthlyRate) || math.IsInf(monthlyRate, 0) || monthlyRate <= -1 {
		return nil, model.NewFinancialConfigurationError("financial.monthly_rate", "must be greater than -100%%")
	}

	p := cents(financed)
	r := decimal.NewFromFloat(monthlyRate)
	switch system {
	case model.SystemPRICE:
		return price(p, r, periods, start), nil
	case model.SystemSAC:
		return sac(p, r, periods, start), nil
	default:
		return nil, model.NewValidationError("financial.system", "unsupported amortization system %q", system)
	}
}

// PriceInstallment is the constant PRICE installment A = P·r / (1 - (1+r)^-n),
// rounded to cents. A zero rate gives P/n.
func PriceInstallment(p, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return p.DivRound(decimal.NewFromInt(int64(n)), 2)
	}
	f := compound(one.Add(r), n)
	// P·r·f / (f - 1) is the same quantity without a negative exponent.
	return cents(p.Mul(r).Mul(f).Div(f.Sub(one)))
}

func price(p, r decimal.Decimal, n int, start time.Time) []model.PaymentScheduleEntry {
	a := PriceInstallment(p, r, n)
	out := make([]model.PaymentScheduleEntry, 0, n)
	balance := p
	for k := 1; k <= n; k++ {
		interest := cents(balance.Mul(r))
		principal := a.Sub(interest)
		if k == n || principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)
		out = append(out, entry(k, start, principal, interest, balance))
	}
	return out
}

// sac amortizes a constant principal rounded up to the cent; the last
// installment absorbs the residual, so its principal is never larger and the
// totals stay non-increasing. When rounding up would overshoot P (less than
// n-1 cents per installment) the principal rounds down and the last
// installment absorbs the remainder instead.
func sac(p, r decimal.Decimal, n int, start time.Time) []model.PaymentScheduleEntry {
	total := p.Shift(2).IntPart()
	base := (total + int64(n) - 1) / int64(n)
	if base*int64(n-1) > total {
		base = total / int64(n)
	}
	principal := decimal.New(base, -2)

	out := make([]model.PaymentScheduleEntry, 0, n)
	balance := p
	for k := 1; k <= n; k++ {
		pk := principal
		if k == n {
			pk = balance
		}
		interest := cents(balance.Mul(r))
		balance = balance.Sub(pk)
		out = append(out, entry(k, start, pk, interest, balance))
	}
	return out
}

func entry(k int, start time.Time, principal, interest, balance decimal.Decimal) model.PaymentScheduleEntry {
	return model.PaymentScheduleEntry{
		InstallmentNumber: k,
		DueDate:           addMonths(start, k),
		PrincipalAmount:   principal,
		InterestAmount:    interest,
		TotalAmount:       principal.Add(interest),
		RemainingBalance:  balance,
		Status:            model.InstallmentPending,
	}
}
