package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/pkg/bacen"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSimulation() model.FinancingSimulation {
	due := time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC)
	return model.FinancingSimulation{
		System:  model.SystemPRICE,
		Periods: 2,
		Schedule: []model.PaymentScheduleEntry{
			{InstallmentNumber: 1, DueDate: due, PrincipalAmount: d("1497.51"), InterestAmount: d("30"), TotalAmount: d("1527.51"), RemainingBalance: d("1502.49")},
			{InstallmentNumber: 2, DueDate: due.AddDate(0, 1, 0), PrincipalAmount: d("1502.49"), InterestAmount: d("15.02"), TotalAmount: d("1517.51"), RemainingBalance: decimal.Zero},
		},
		Summary: model.ScheduleSummary{
			FinancedAmount: d("3000"),
			MonthlyRatePct: 1,
			AnnualRatePct:  12.6825,
			TotalPaid:      d("3045.02"),
			TotalInterest:  d("45.02"),
			IOF:            d("11.4"),
			CET:            13.91,
			CETMonthly:     1.0909,
		},
		NetMonthlyCashFlow: d("-1215.06"),
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", BRL(d("1234.56")))
	assert.Equal(t, "R$ -388,49", BRL(d("-388.49")))
	assert.Equal(t, "R$ 0,00", BRL(decimal.Zero))
	assert.Equal(t, "12,68%", Percent(12.6825, 2))
	assert.Equal(t, "7.540", Number(7539.9, 0))
}

func TestWriteSchedule(t *testing.T) {
	var buf bytes.Buffer
	WriteSchedule(&buf, sampleSimulation())

	out := buf.String()
	assert.Contains(t, out, "VENCIMENTO")
	assert.Contains(t, out, "16/11/2026")
	assert.Contains(t, out, "16/12/2026")
	assert.Contains(t, out, "R$ 1.527,51")
	assert.Contains(t, out, "Valor financiado:")
	assert.Contains(t, out, "R$ 3.000,00")
	assert.Contains(t, out, "1,0000% a.m. (12,68% a.a.)")
	assert.Contains(t, out, "R$ -1.215,06")
}

func TestWriteTariffsAndRates(t *testing.T) {
	var buf bytes.Buffer
	WriteTariffs(&buf, []model.TariffStructure{{
		UF: "SP", ConcessionariaName: "Enel SP", Grupo: model.GrupoB1, Modalidade: model.ModalidadeConvencional,
		Classe: model.ClasseResidencial, Bandeira: model.BandeiraAmarela,
		BaseRate: d("0.74"), Rate: d("0.76"), ReferenceDate: "2026-10-16",
	}})
	assert.Contains(t, buf.String(), "Enel SP")
	assert.Contains(t, buf.String(), "0,76000")

	buf.Reset()
	WriteRates(&buf, model.ReferenceRates{
		Selic: model.RateValue{Series: 432, Value: 10.5, Date: "2026-10-15", Validated: true},
		CDI:   model.RateValue{Series: 4389, Value: 10.4},
		IPCA:  model.RateValue{Series: 433, Value: 0.35, Validated: true},
	})
	out := buf.String()
	assert.Contains(t, out, "10,50%")
	assert.Contains(t, out, "BACEN")
	assert.Contains(t, out, "padrão")

	buf.Reset()
	WriteObservations(&buf, []bacen.Observation{{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Value: 0.35}})
	assert.Contains(t, buf.String(), "01/09/2026")
	assert.Contains(t, buf.String(), "0,35")
}

func TestWriteReport(t *testing.T) {
	irr := 20.56
	r := &model.ViabilityReport{
		ReportID:       "rep-1",
		Energy:         model.EnergyEstimate{SystemSizeKWp: 5.85, AnnualGenerationKWh: 7539.9, Source: model.EnergySourceFallback},
		MPPTValidation: model.MPPTValidation{Compatible: true},
		TariffInfo:     model.TariffStructure{UF: "SP", ConcessionariaName: "Enel SP", Rate: d("0.76")},
		Compliance:     model.ComplianceResult{OversizingPct: 162.5, Message: "Oversizing máximo: 160% (limite ANEEL)"},
		Financial: model.FinancialReport{
			Savings: model.Savings{MonthlySavings: d("342.1"), PaybackYears: 5.73, IRRPct: &irr, BenchmarkPct: 10.5},
		},
		Degraded: []model.Degraded{{Service: "irradiance.none", Reason: "unavailable"}},
	}
	var buf bytes.Buffer
	WriteReport(&buf, r)
	out := buf.String()
	assert.Contains(t, out, "5,85 kWp")
	assert.Contains(t, out, "7.540 kWh (fallback)")
	assert.Contains(t, out, "limite ANEEL")
	assert.Contains(t, out, "R$ 342,10")
	assert.Contains(t, out, "20,56% a.a.")
	assert.Contains(t, out, "irradiance.none (unavailable)")
}

func TestScheduleWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronograma.xlsx")
	require.NoError(t, SaveScheduleXLSX(path, sampleSimulation()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	sched := f.Sheet[SheetSchedule]
	require.NotNil(t, sched)
	require.Len(t, sched.Rows, 3)
	assert.Equal(t, "Parcela", sched.Rows[0].Cells[0].String())
	assert.Equal(t, "Saldo devedor", sched.Rows[0].Cells[5].String())
	assert.Equal(t, "16/12/2026", sched.Rows[2].Cells[1].String())
	v, err := sched.Rows[1].Cells[4].Float()
	require.NoError(t, err)
	assert.InDelta(t, 1527.51, v, 1e-9)

	summary := f.Sheet[SheetSummary]
	require.NotNil(t, summary)
	assert.Equal(t, "PRICE", summary.Rows[0].Cells[1].String())
}

func TestWriteScheduleXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleXLSX(&buf, sampleSimulation()))
	// xlsx is a zip container.
	assert.Equal(t, "PK", buf.String()[:2])
}
