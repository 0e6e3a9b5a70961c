package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllUFs(t *testing.T) {
	ufs := AllUFs()
	require.Len(t, ufs, 27)
	assert.Equal(t, UF("AC"), ufs[0])
	assert.Equal(t, UF("TO"), ufs[26])
	for _, u := range ufs {
		assert.True(t, u.Valid(), u)
		assert.NotEmpty(t, u.Name())
	}
}

func TestParseUF(t *testing.T) {
	u, ok := ParseUF(" sp ")
	assert.True(t, ok)
	assert.Equal(t, UF("SP"), u)

	_, ok = ParseUF("XX")
	assert.False(t, ok)
}

func TestGrupo(t *testing.T) {
	assert.True(t, GrupoA3a.Valid())
	assert.True(t, GrupoA3a.IsGroupA())
	assert.False(t, GrupoB1.IsGroupA())
	assert.False(t, Grupo("A5").Valid())

	assert.Equal(t, ClasseResidencial, GrupoB1.DefaultClasse())
	assert.Equal(t, ClasseRural, GrupoB2.DefaultClasse())
	assert.Equal(t, ClasseComercial, GrupoB3.DefaultClasse())
	assert.Equal(t, ClasseIluminacaoPublica, GrupoB4.DefaultClasse())
	assert.Equal(t, ClasseIndustrial, GrupoA4.DefaultClasse())
}

func TestProposalStatusTerminal(t *testing.T) {
	assert.False(t, ProposalPending.Terminal())
	assert.False(t, ProposalApproved.Terminal())
	assert.True(t, ProposalContracted.Terminal())
	assert.True(t, ProposalCancelled.Terminal())
}

func sampleLosses() LossBreakdown {
	return LossBreakdown{
		Soiling: 0.02, Shading: 0.03, Mismatch: 0.02, Wiring: 0.02,
		Connections: 0.005, LID: 0.015, Nameplate: 0.01, Availability: 0.03,
	}
}

func TestDerate_Multiplicative(t *testing.T) {
	assert.InDelta(t, 1.0, LossBreakdown{}.Derate(), 1e-12)

	l := LossBreakdown{Soiling: 0.1, Shading: 0.1}
	// Multiplicative: 0.9 * 0.9, not 1 - 0.2.
	assert.InDelta(t, 0.81, l.Derate(), 1e-12)

	assert.InDelta(t, 0.85925, sampleLosses().Derate(), 1e-4)
}

func TestDerate_StrictlyDecreasingInEachLoss(t *testing.T) {
	setters := []func(*LossBreakdown, float64){
		func(l *LossBreakdown, v float64) { l.Soiling = v },
		func(l *LossBreakdown, v float64) { l.Shading = v },
		func(l *LossBreakdown, v float64) { l.Mismatch = v },
		func(l *LossBreakdown, v float64) { l.Wiring = v },
		func(l *LossBreakdown, v float64) { l.Connections = v },
		func(l *LossBreakdown, v float64) { l.LID = v },
		func(l *LossBreakdown, v float64) { l.Nameplate = v },
		func(l *LossBreakdown, v float64) { l.Availability = v },
	}
	for i, set := range setters {
		prev := 2.0
		for _, v := range []float64{0, 0.01, 0.1, 0.3, 0.5, 0.9, 0.999} {
			l := sampleLosses()
			set(&l, v)
			d := l.Derate()
			assert.Less(t, d, prev, "loss %d at %v", i, v)
			prev = d
		}
	}
}

func TestLossBreakdown_Validate(t *testing.T) {
	require.NoError(t, sampleLosses().Validate())

	l := sampleLosses()
	l.LID = 1
	err := l.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "system.losses.lid")

	l = sampleLosses()
	l.Wiring = -0.01
	assert.Error(t, l.Validate())
}

func TestLocation_Validate(t *testing.T) {
	sp := Location{Latitude: -23.55, Longitude: -46.63, UF: "SP", Altitude: 760, Timezone: "America/Sao_Paulo"}
	require.NoError(t, sp.Validate())

	lisbon := sp
	lisbon.Latitude, lisbon.Longitude = 38.72, -9.14
	err := lisbon.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside Brazil")

	bad := sp
	bad.UF = "XX"
	assert.True(t, IsValidation(bad.Validate()))

	for _, alt := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -150, 3200} {
		loc := sp
		loc.Altitude = alt
		err := loc.Validate()
		require.Error(t, err, alt)
		assert.True(t, IsValidation(err), alt)
		assert.Contains(t, err.Error(), "altitude", alt)
	}
}

func TestSystemSpec(t *testing.T) {
	s := SystemSpec{
		InverterID: "inv", PanelID: "pan", ModulesPerString: 10, Strings: 1,
		SurfaceTilt: 23, SurfaceAzimuth: 0, Losses: sampleLosses(),
	}
	require.NoError(t, s.Validate())
	assert.Equal(t, 10, s.Modules())
	assert.InDelta(t, 5.85, s.SizeKWp(585), 1e-9)

	s.Strings = 0
	assert.Error(t, s.Validate())
}

func TestConsumptionProfile(t *testing.T) {
	c := ConsumptionProfile{MonthlyKWh: 450, Grupo: GrupoB1, Bandeira: BandeiraAmarela}
	require.NoError(t, c.Validate())
	assert.InDelta(t, 5400, c.Annual(), 1e-9)
	assert.Equal(t, ClasseResidencial, c.EffectiveClasse())

	c.Profile = []float64{400, 400, 400, 400, 400, 400, 500, 500, 500, 500, 500, 500}
	require.NoError(t, c.Validate())
	assert.InDelta(t, 5400, c.Annual(), 1e-9)
	assert.InDelta(t, 500, c.Monthly()[11], 1e-9)

	c.Profile = []float64{1, 2}
	assert.Error(t, c.Validate())

	zero := ConsumptionProfile{MonthlyKWh: 0, Grupo: GrupoB1}
	err := zero.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumption.monthly_kwh")

	badBandeira := ConsumptionProfile{MonthlyKWh: 100, Grupo: GrupoB1, Bandeira: "roxa"}
	assert.Error(t, badBandeira.Validate())
}

func TestFinancialInputs_Validate(t *testing.T) {
	base := FinancialInputs{
		Investment: decimal.NewFromInt(23500),
		Periods:    60,
		System:     SystemPRICE,
		Spread:     3.5,
	}
	require.NoError(t, base.Validate())
	assert.True(t, base.Financed().Equal(decimal.NewFromInt(23500)))

	tests := []struct {
		name      string
		mutate    func(f *FinancialInputs)
		financial bool
	}{
		{"zero periods", func(f *FinancialInputs) { f.Periods = 0 }, true},
		{"too many periods", func(f *FinancialInputs) { f.Periods = 361 }, true},
		{"down payment above investment", func(f *FinancialInputs) { f.DownPayment = decimal.NewFromInt(30000) }, true},
		{"down payment equals investment", func(f *FinancialInputs) { f.DownPayment = decimal.NewFromInt(23500) }, true},
		{"rate at -100%", func(f *FinancialInputs) { r := -100.0; f.MonthlyRate = &r }, true},
		{"unknown system", func(f *FinancialInputs) { f.System = "GERMAN" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			err := f.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.financial, IsFinancialConfiguration(err))
			assert.Equal(t, !tt.financial, IsValidation(err))
		})
	}

	ok := base
	ok.Periods = 360
	assert.NoError(t, ok.Validate())
}

func TestErrorsSurviveErisWrapping(t *testing.T) {
	err := eris.Wrap(NewValidationError("location.uf", "unknown"), "viability: validate")
	assert.True(t, IsValidation(err))

	var v *ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "location.uf", v.Field)
}

func TestDecimalMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		V decimal.Decimal `json:"v"`
	}{decimal.RequireFromString("12.34")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":12.34}`, string(b))
}

func TestViabilityRequest_DecodeSpecShape(t *testing.T) {
	body := `{
		"location": {"latitude": -23.55, "longitude": -46.63, "uf": "SP", "altitude": 760, "timezone": "America/Sao_Paulo"},
		"system": {"inverter_id": "growatt-min-6000tl-x", "panel_id": "jinko-tiger-neo-585", "modules_per_string": 10, "strings": 1,
			"surface_tilt": 23, "surface_azimuth": 0,
			"losses": {"soiling": 0.02, "shading": 0.03, "mismatch": 0.02, "wiring": 0.02, "connections": 0.005, "lid": 0.015, "nameplate": 0.01, "availability": 0.03}},
		"financial": {"investment": 23500, "periods": 60, "system": "PRICE", "spread": 3.5},
		"consumption": {"monthly_kwh": 450, "grupo": "B1", "bandeira": "amarela"}
	}`
	var req ViabilityRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())

	assert.Equal(t, UF("SP"), req.Location.UF)
	assert.Equal(t, 10, req.System.ModulesPerString)
	assert.InDelta(t, 0.015, req.System.Losses.LID, 1e-12)
	assert.True(t, req.Financial.Investment.Equal(decimal.NewFromInt(23500)))
	assert.Equal(t, SystemPRICE, req.Financial.System)
	assert.Equal(t, BandeiraAmarela, req.Consumption.Bandeira)
}
