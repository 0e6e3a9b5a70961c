package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

func TestIRR(t *testing.T) {
	r, ok := IRR([]float64{-100, 110})
	require.True(t, ok)
	assert.InDelta(t, 0.10, r, 1e-9)

	r, ok = IRR([]float64{-1000, 300, 300, 300, 300, 300})
	require.True(t, ok)
	assert.InDelta(t, 0.152382, r, 1e-6)

	_, ok = IRR([]float64{100, 100})
	assert.False(t, ok)
	_, ok = IRR([]float64{-100})
	assert.False(t, ok)

	assert.InDelta(t, 0, NPV(0.1, []float64{-100, 110}), 1e-9)
}

func TestIOF(t *testing.T) {
	s, err := GenerateSchedule(d("10000"), 0, 3, model.SystemSAC, start)
	require.NoError(t, err)
	// 38.00 flat + 0.0082%/day on 3333.34×31, 3333.34×59 and 3333.32×90 days.
	assert.Equal(t, "87.2", IOF(s, d("10000"), start, DefaultIOF).String())
}

func TestIOF_DailyPartCappedAtAYear(t *testing.T) {
	s, err := GenerateSchedule(d("12000"), 0, 24, model.SystemSAC, start)
	require.NoError(t, err)
	capped := IOF(s, d("12000"), start, IOFRates{DailyPct: 1})

	// Every installment from the 13th on is charged 365 days, never more.
	expect := decimal.Zero
	for _, e := range s {
		days := int64(e.DueDate.Sub(start).Hours() / 24)
		expect = expect.Add(e.PrincipalAmount.Mul(decimal.NewFromInt(min(days, 365))).Div(decimal.NewFromInt(100)))
	}
	assert.True(t, capped.Equal(expect.Round(2)), "%s vs %s", capped, expect)
}

func TestCET_NoFeesMatchesRate(t *testing.T) {
	s, err := GenerateSchedule(d("10000"), 0.01, 12, model.SystemPRICE, start)
	require.NoError(t, err)

	m, a, ok := CET(s, d("10000"))
	require.True(t, ok)
	assert.InDelta(t, 1.0, m, 0.001)
	assert.InDelta(t, 12.6825, a, 0.02)
}

func TestSummarize(t *testing.T) {
	s, err := GenerateSchedule(d("10000"), 0.01, 12, model.SystemPRICE, start)
	require.NoError(t, err)

	sum := Summarize(s, d("10000"), d("500"), d("200"), d("50"), 0.01)
	assert.True(t, sum.TotalPaid.Equal(sum.TotalInterest.Add(d("10000"))))
	assert.Equal(t, "888.49", sum.FirstInstallment.String())
	assert.Equal(t, "-388.49", sum.NetMonthlyCashFlow.String())
	assert.Greater(t, sum.CET, sum.AnnualRatePct, "fees raise the effective cost")
	assert.Greater(t, sum.CETMonthly, sum.MonthlyRatePct)
	assert.InDelta(t, 1.0, sum.MonthlyRatePct, 1e-9)
	assert.Equal(t, "50", sum.IOF.String())
}

func TestScheduler_Simulate(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 10, 16, 14, 0, 0, 0, time.UTC) }
	sch := NewScheduler(config.FinancingConfig{IOFEnabled: true, IOFFlatPct: 0.38, IOFDailyPct: 0.0082}, WithSchedulerClock(now))

	in := model.FinancialInputs{Investment: d("23500"), Periods: 60, System: model.SystemPRICE, Spread: 3.5}
	sim, err := sch.Simulate(in, 10.5, d("350"))
	require.NoError(t, err)

	require.Len(t, sim.Schedule, 60)
	assert.Equal(t, time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC), sim.Schedule[0].DueDate)
	assert.True(t, sim.Summary.TotalPaid.GreaterThan(d("23500")))
	assert.True(t, sim.Summary.IOF.IsPositive())
	assert.Greater(t, sim.Summary.CET, sim.Summary.AnnualRatePct)
	assert.True(t, sim.NetMonthlyCashFlow.Equal(d("350").Sub(sim.Schedule[0].TotalAmount)))
	assert.InDelta(t, 14.0, sim.Summary.AnnualRatePct, 0.001)

	noIOF := NewScheduler(config.FinancingConfig{}, WithSchedulerClock(now))
	sim2, err := noIOF.Simulate(in, 10.5, d("350"))
	require.NoError(t, err)
	assert.True(t, sim2.Summary.IOF.IsZero())

	withDown := in
	withDown.DownPayment = d("3500")
	sim3, err := noIOF.Simulate(withDown, 10.5, d("350"))
	require.NoError(t, err)
	assert.True(t, sumPrincipal(sim3.Schedule).Equal(d("20000")))

	bad := in
	bad.DownPayment = d("30000")
	_, err = noIOF.Simulate(bad, 10.5, d("350"))
	require.Error(t, err)
	assert.True(t, model.IsFinancialConfiguration(err))
}
