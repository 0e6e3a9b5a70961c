package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

// Projection holds the long-run assumptions of the savings model.
type Projection struct {
	Years               int
	DegradationPct      float64
	TariffEscalationPct float64
	// SurplusCreditFactor values each kWh injected beyond consumption as a
	// fraction of the tariff (1.0 is full net metering).
	SurplusCreditFactor float64
}

// DefaultProjection is 25 years, 0.5%/yr degradation, 4%/yr tariff escalation and full credit.
var DefaultProjection = Projection{Years: 25, DegradationPct: 0.5, TariffEscalationPct: 4, SurplusCreditFactor: 1}

// ProjectionFromConfig maps configuration onto a Projection.
func ProjectionFromConfig(cfg config.FinanceConfig) Projection {
	p := Projection{
		Years:               cfg.ProjectionYears,
		DegradationPct:      cfg.DegradationPct,
		TariffEscalationPct: cfg.TariffEscalationPct,
		SurplusCreditFactor: cfg.SurplusCreditFactor,
	}
	if p.Years <= 0 {
		p.Years = DefaultProjection.Years
	}
	return p
}

// SavingsInput is what the savings engine needs from the rest of the report.
type SavingsInput struct {
	Production  [12]float64
	Consumption [12]float64
	// Rate is the resolved tariff in R$/kWh, surcharge included.
	Rate       decimal.Decimal
	Investment decimal.Decimal
	// SelicPct is the annual benchmark the investment must beat.
	SelicPct float64
}

// ComputeSavings values the energy offset by the system and projects it over
// the configured horizon. Money is accumulated in decimal and rounded to cents
// per month and per year.
func ComputeSavings(in SavingsInput, p Projection) (model.Savings, error) {
	if !in.Investment.IsPositive() {
		return model.Savings{}, model.NewFinancialConfigurationError("financial.investment", "must be positive")
	}
	if in.Rate.IsNegative() {
		return model.Savings{}, model.NewValidationError("tariff.rate", "must not be negative")
	}
	if p.Years <= 0 {
		p.Years = DefaultProjection.Years
	}
	credit := decimal.NewFromFloat(p.SurplusCreditFactor)

	var out model.Savings
	annual := decimal.Zero
	for m := range 12 {
		gen, cons := in.Production[m], in.Consumption[m]
		offset := decimal.NewFromFloat(math.Min(gen, cons)).Mul(in.Rate)
		surplus := decimal.NewFromFloat(math.Max(gen-cons, 0)).Mul(in.Rate).Mul(credit)
		v := cents(offset.Add(surplus))
		out.MonthlyBreakdown[m] = v
		annual = annual.Add(v)
	}
	out.AnnualSavings = annual
	out.MonthlySavings = annual.DivRound(decimal.NewFromInt(12), 2)
	out.ProjectionYears = p.Years
	out.BenchmarkPct = in.SelicPct

	if annual.IsPositive() {
		out.PaybackYears = round(in.Investment.Div(annual).InexactFloat64(), 2)
	}

	yearly := projectYears(annual, p)
	projected := decimal.Zero
	for _, y := range yearly {
		projected = projected.Add(y)
	}
	out.ProjectedSavings = projected
	out.ROIPct = round(projected.Sub(in.Investment).Div(in.Investment).Mul(hundred).InexactFloat64(), 2)

	discount := one.Add(decimal.NewFromFloat(in.SelicPct).Div(hundred))
	out.NPV, out.DiscountedPaybackYears = discounted(in.Investment, yearly, discount)

	flows := make([]float64, 0, len(yearly)+1)
	flows = append(flows, -in.Investment.InexactFloat64())
	for _, y := range yearly {
		flows = append(flows, y.InexactFloat64())
	}
	if irr, ok := IRR(flows); ok {
		pct := round(irr*100, 2)
		out.IRRPct = &pct
		out.Viable = pct > in.SelicPct
	}
	return out, nil
}

// projectYears returns the savings of each year: year y earns the first-year
// savings scaled by (1-degradation)^(y-1) × (1+escalation)^(y-1).
func projectYears(first decimal.Decimal, p Projection) []decimal.Decimal {
	growth := one.Sub(decimal.NewFromFloat(p.DegradationPct).Div(hundred)).
		Mul(one.Add(decimal.NewFromFloat(p.TariffEscalationPct).Div(hundred)))

	out := make([]decimal.Decimal, p.Years)
	factor := one
	for y := range p.Years {
		out[y] = cents(first.Mul(factor))
		factor = factor.Mul(growth).Round(compoundPrecision)
	}
	return out
}

// discounted returns the NPV of the yearly savings against the investment and
// the interpolated year in which cumulative discounted savings repay it, or
// nil when they never do.
func discounted(investment decimal.Decimal, yearly []decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, *float64) {
	npv := investment.Neg()
	var payback *float64
	factor := one
	for y, s := range yearly {
		factor = factor.Mul(rate).Round(compoundPrecision)
		pv := s.DivRound(factor, 8)
		before := npv
		npv = npv.Add(pv)
		if payback == nil && !npv.IsNegative() && pv.IsPositive() {
			frac := before.Neg().Div(pv).InexactFloat64()
			v := round(float64(y)+frac, 2)
			payback = &v
		}
	}
	return cents(npv), payback
}
