package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

func flat(v float64) [12]float64 {
	var out [12]float64
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeSavings_Netting(t *testing.T) {
	tests := []struct {
		name    string
		gen     float64
		factor  float64
		monthly string
	}{
		{"matched", 450, 1, "342"},
		{"surplus full credit", 500, 1, "380"},
		{"surplus half credit", 500, 0.5, "361"},
		{"deficit", 300, 1, "228"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProjection
			p.SurplusCreditFactor = tt.factor
			s, err := ComputeSavings(SavingsInput{
				Production:  flat(tt.gen),
				Consumption: flat(450),
				Rate:        d("0.76"),
				Investment:  d("23500"),
				SelicPct:    10.5,
			}, p)
			require.NoError(t, err)
			assert.Equal(t, tt.monthly, s.MonthlySavings.String())
			assert.Equal(t, tt.monthly, s.MonthlyBreakdown[5].String())
		})
	}
}

func TestComputeSavings_Projection(t *testing.T) {
	s, err := ComputeSavings(SavingsInput{
		Production:  flat(450),
		Consumption: flat(450),
		Rate:        d("0.76"),
		Investment:  d("23500"),
		SelicPct:    10.5,
	}, DefaultProjection)
	require.NoError(t, err)

	assert.Equal(t, "4104", s.AnnualSavings.String())
	assert.InDelta(t, 5.73, s.PaybackYears, 1e-9)
	assert.Equal(t, 25, s.ProjectionYears)
	assert.InDelta(t, 159425.65, s.ProjectedSavings.InexactFloat64(), 0.05)
	assert.True(t, s.ProjectedSavings.Equal(s.ProjectedSavings.Round(2)), "no sub-cent drift")
	assert.InDelta(t, 578.41, s.ROIPct, 0.01)

	require.NotNil(t, s.IRRPct)
	assert.InDelta(t, 20.56, *s.IRRPct, 0.01)
	assert.True(t, s.Viable)
	assert.Equal(t, 10.5, s.BenchmarkPct)

	assert.True(t, s.NPV.IsPositive())
	require.NotNil(t, s.DiscountedPaybackYears)
	assert.Greater(t, *s.DiscountedPaybackYears, s.PaybackYears)
	assert.Less(t, *s.DiscountedPaybackYears, 25.0)
}

func TestComputeSavings_NotViable(t *testing.T) {
	s, err := ComputeSavings(SavingsInput{
		Production:  flat(100),
		Consumption: flat(450),
		Rate:        d("0.76"),
		Investment:  d("60000"),
		SelicPct:    10.5,
	}, DefaultProjection)
	require.NoError(t, err)
	assert.False(t, s.Viable)
	assert.True(t, s.NPV.IsNegative())
	assert.Nil(t, s.DiscountedPaybackYears)
}

func TestComputeSavings_NoGeneration(t *testing.T) {
	s, err := ComputeSavings(SavingsInput{
		Consumption: flat(450),
		Rate:        d("0.76"),
		Investment:  d("23500"),
		SelicPct:    10.5,
	}, DefaultProjection)
	require.NoError(t, err)
	assert.True(t, s.MonthlySavings.IsZero())
	assert.Zero(t, s.PaybackYears)
	assert.Nil(t, s.IRRPct)
	assert.False(t, s.Viable)
}

func TestComputeSavings_Rejects(t *testing.T) {
	_, err := ComputeSavings(SavingsInput{Rate: d("0.7"), Investment: decimal.Zero}, DefaultProjection)
	assert.True(t, model.IsFinancialConfiguration(err))

	_, err = ComputeSavings(SavingsInput{Rate: d("-0.1"), Investment: d("100")}, DefaultProjection)
	assert.True(t, model.IsValidation(err))
}

func TestProjectionFromConfig(t *testing.T) {
	p := ProjectionFromConfig(config.FinanceConfig{DegradationPct: 0.7, TariffEscalationPct: 5, SurplusCreditFactor: 0.8})
	assert.Equal(t, 25, p.Years)
	assert.Equal(t, 0.7, p.DegradationPct)
	assert.Equal(t, 0.8, p.SurplusCreditFactor)
}
