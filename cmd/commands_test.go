package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/proposal"
	"github.com/sells-group/solar-viability/internal/store"
)

const viabilityRequestJSON = `{
	"location": {"latitude": -23.55, "longitude": -46.63, "uf": "SP", "altitude": 760, "timezone": "America/Sao_Paulo"},
	"system": {"inverter_id": "growatt-min-6000tl-x", "panel_id": "jinko-tiger-neo-585", "modules_per_string": 10, "strings": 1,
		"surface_tilt": 23, "surface_azimuth": 0,
		"losses": {"soiling": 0.02, "shading": 0.03, "mismatch": 0.02, "wiring": 0.02, "connections": 0.005, "lid": 0.015, "nameplate": 0.01, "availability": 0.03}},
	"financial": {"investment": 23500, "periods": 60, "system": "PRICE", "spread": 3.5},
	"consumption": {"monthly_kwh": 450, "grupo": "B1", "bandeira": "amarela"}
}`

func writeRequest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(viabilityRequestJSON), 0o600))
	return path
}

func TestScheduleCommand_Table(t *testing.T) {
	out, err := execute(t, "schedule",
		"--amount", "10000", "--periods", "12", "--rate", "1",
		"--start", "2026-10-16", "--monthly-savings", "500")
	require.NoError(t, err)

	assert.Contains(t, out, "PRESTAÇÃO")
	assert.Contains(t, out, "R$ 888,49")
	assert.Contains(t, out, "16/11/2026")
	assert.Contains(t, out, "16/10/2027")
	assert.Contains(t, out, "PRICE, 12 parcelas")
	assert.Contains(t, out, "Fluxo mensal líquido")
}

func TestScheduleCommand_JSONAndWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronograma.xlsx")
	out, err := execute(t, "schedule",
		"--amount", "10000", "--periods", "12", "--rate", "1", "--system", "SAC",
		"--start", "2026-10-16", "--json", "--xlsx", path)
	require.NoError(t, err)

	var sim model.FinancingSimulation
	require.NoError(t, json.Unmarshal([]byte(out), &sim))
	assert.Equal(t, model.SystemSAC, sim.System)
	require.Len(t, sim.Schedule, 12)
	// SAC: principal 833.34 rounded up, first installment adds 100 interest.
	assert.Equal(t, "933.34", sim.Schedule[0].TotalAmount.StringFixed(2))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestScheduleCommand_SelicPlusSpread(t *testing.T) {
	newSGSServer(t)

	out, err := execute(t, "schedule",
		"--amount", "10000", "--periods", "24", "--system", "SAC", "--spread", "3.5", "--json")
	require.NoError(t, err)

	var sim model.FinancingSimulation
	require.NoError(t, json.Unmarshal([]byte(out), &sim))
	assert.InDelta(t, 14.0, sim.Summary.AnnualRatePct, 1e-6)
}

func TestScheduleCommand_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"amount not a number", []string{"--amount", "dez mil", "--rate", "1"}, "amount"},
		{"bad start date", []string{"--amount", "10000", "--rate", "1", "--start", "16/10/2026"}, "--start"},
		{"too many periods", []string{"--amount", "10000", "--rate", "1", "--periods", "400"}, "financial.periods"},
		{"unknown system", []string{"--amount", "10000", "--rate", "1", "--system", "GERMAN"}, "system"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"schedule"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTariffsCommand_SingleUF(t *testing.T) {
	out, err := execute(t, "tariffs", "--uf", "mg", "--modalidade", "horaria_branca", "--json")
	require.NoError(t, err)

	var ts []model.TariffStructure
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	require.Len(t, ts, 1)
	assert.Equal(t, model.UF("MG"), ts[0].UF)
	assert.Equal(t, "cemig-d", ts[0].Concessionaria)
	assert.Equal(t, "0.8245", ts[0].Rate.String())
	assert.Equal(t, "static", ts[0].Source)
}

func TestTariffsCommand_AllUFs(t *testing.T) {
	out, err := execute(t, "tariffs")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 28)
	assert.True(t, strings.HasPrefix(lines[0], "UF"))
	assert.True(t, strings.HasPrefix(lines[1], "AC"))
	assert.True(t, strings.HasPrefix(lines[27], "TO"))
}

func TestTariffsCommand_UnknownUF(t *testing.T) {
	_, err := execute(t, "tariffs", "--uf", "SP,XX")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Contains(t, err.Error(), "XX")
}

func TestTariffsSeed_ThenResolveFromStore(t *testing.T) {
	t.Setenv("SOLAR_STORE_DRIVER", "sqlite")
	t.Setenv("SOLAR_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "solar.db"))

	out, err := execute(t, "tariffs", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded")

	t.Setenv("SOLAR_TARIFF_SOURCE", "store")
	out, err = execute(t, "tariffs", "--uf", "MG", "--modalidade", "horaria_branca", "--json")
	require.NoError(t, err)

	var ts []model.TariffStructure
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	require.Len(t, ts, 1)
	assert.Equal(t, "store", ts[0].Source)
	assert.Equal(t, "0.8245", ts[0].Rate.String())
}

func TestTariffsSeed_RequiresStore(t *testing.T) {
	_, err := execute(t, "tariffs", "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is not configured")
}

func TestRatesCommand(t *testing.T) {
	newSGSServer(t)

	out, err := execute(t, "rates")
	require.NoError(t, err)
	assert.Contains(t, out, "SELIC")
	assert.Contains(t, out, "10,50%")
	assert.Contains(t, out, "BACEN")
	assert.NotContains(t, out, "padrão")
}

func TestRatesCommand_Unreachable(t *testing.T) {
	t.Setenv("SOLAR_BACEN_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("SOLAR_BACEN_TIMEOUT_SECS", "1")

	out, err := execute(t, "rates", "--json")
	require.NoError(t, err)

	var rates model.ReferenceRates
	require.NoError(t, json.Unmarshal([]byte(out), &rates))
	assert.False(t, rates.Validated)
	assert.Equal(t, 10.50, rates.Selic.Value)
	assert.Len(t, rates.Degraded, 3)
}

func TestRatesHistoryCommand(t *testing.T) {
	newSGSServer(t)

	out, err := execute(t, "rates", "history", "ipca", "--from", "2026-08-01", "--to", "2026-09-30")
	require.NoError(t, err)
	assert.Contains(t, out, "01/08/2026")
	assert.Contains(t, out, "0,28")
	assert.Contains(t, out, "0,35")

	_, err = execute(t, "rates", "history", "poupanca")
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestHistoryRange(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 4, 0, 0, time.UTC)

	from, to, err := historyRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC), from)

	from, _, err = historyRange("2026-01-01", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)

	_, _, err = historyRange("2026-09-01", "2026-08-01", now)
	assert.True(t, model.IsValidation(err))

	_, _, err = historyRange("ontem", "", now)
	assert.Error(t, err)
}

func TestViabilityCommand_JSON(t *testing.T) {
	newSGSServer(t)
	t.Setenv("SOLAR_IRRADIANCE_PROVIDER", "none")

	out, err := execute(t, "viability", "--input", writeRequest(t))
	require.NoError(t, err)

	var report model.ViabilityReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Success)
	assert.Equal(t, model.EnergySourceFallback, report.Energy.Source)
	assert.Equal(t, "0.76", report.TariffInfo.Rate.String())
	assert.False(t, report.Compliance.Valid)
	assert.True(t, report.BacenValidation.Validated)
}

func TestViabilityCommand_SummaryFromStdin(t *testing.T) {
	newSGSServer(t)
	t.Setenv("SOLAR_IRRADIANCE_PROVIDER", "none")

	rootCmd.SetIn(strings.NewReader(viabilityRequestJSON))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "viability", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "5,85 kWp")
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, "irradiance.none")
	assert.Contains(t, out, "Oversizing máximo")
}

func TestViabilityCommand_InvalidRequest(t *testing.T) {
	t.Setenv("SOLAR_IRRADIANCE_PROVIDER", "none")
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(viabilityRequestJSON, `"uf": "SP"`, `"uf": "XX"`, 1)), 0o600))

	_, err := execute(t, "viability", "--input", path)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))

	_, err = execute(t, "viability", "--input", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open request")
}

func TestProposalList(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "solar.db")
	st, err := store.NewSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	report := &model.ViabilityReport{
		ReportID: "rep-1",
		Financial: model.FinancialReport{
			Savings: model.Savings{MonthlySavings: decimal.NewFromInt(500)},
			FinancingSimulation: model.FinancingSimulation{
				System:  model.SystemPRICE,
				Periods: 12,
				Schedule: []model.PaymentScheduleEntry{
					{InstallmentNumber: 1, TotalAmount: decimal.RequireFromString("888.49")},
				},
			},
		},
	}
	p := proposal.New(report, time.Hour, time.Now())
	require.NoError(t, st.CreateProposal(context.Background(), p))
	require.NoError(t, st.Close())

	t.Setenv("SOLAR_STORE_DRIVER", "sqlite")
	t.Setenv("SOLAR_STORE_DATABASE_URL", dsn)

	out, err := execute(t, "proposal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, p.ID)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "R$ 888,49")

	out, err = execute(t, "proposal", "list", "--status", "contracted")
	require.NoError(t, err)
	assert.Contains(t, out, "No proposals found.")
}

func TestProposalList_RequiresStore(t *testing.T) {
	_, err := execute(t, "proposal", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is not configured")
}

func TestFormatProposals_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatProposals(&buf, nil)
	assert.Equal(t, "No proposals found.\n", buf.String())
}
