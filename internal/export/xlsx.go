package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/solar-viability/internal/model"
)

// Sheet names of the schedule workbook.
const (
	SheetSchedule = "Cronograma"
	SheetSummary  = "Resumo"
)

const moneyFormat = "#,##0.00"

// ScheduleWorkbook builds a workbook with the installment table and the summary.
func ScheduleWorkbook(sim model.FinancingSimulation) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet(SheetSchedule)
	if err != nil {
		return nil, eris.Wrap(err, "export: add schedule sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"Parcela", "Vencimento", "Amortização", "Juros", "Prestação", "Saldo devedor"} {
		header.AddCell().SetString(h)
	}
	for _, e := range sim.Schedule {
		row := sheet.AddRow()
		row.AddCell().SetInt(e.InstallmentNumber)
		row.AddCell().SetString(e.DueDate.Format(dateBR))
		money(row, e.PrincipalAmount)
		money(row, e.InterestAmount)
		money(row, e.TotalAmount)
		money(row, e.RemainingBalance)
	}

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return nil, eris.Wrap(err, "export: add summary sheet")
	}
	s := sim.Summary
	text := func(label, v string) {
		row := summary.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetString(v)
	}
	amount := func(label string, d decimal.Decimal) {
		row := summary.AddRow()
		row.AddCell().SetString(label)
		money(row, d)
	}
	pct := func(label string, v float64) {
		row := summary.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetFloatWithFormat(v/100, "0.0000%")
	}
	text("Sistema", string(sim.System))
	text("Parcelas", strconv.Itoa(sim.Periods))
	amount("Valor financiado", s.FinancedAmount)
	pct("Taxa mensal", s.MonthlyRatePct)
	pct("Taxa anual", s.AnnualRatePct)
	amount("Total pago", s.TotalPaid)
	amount("Total de juros", s.TotalInterest)
	amount("Tarifa de cadastro", s.OriginationFee)
	amount("IOF", s.IOF)
	pct("CET mensal", s.CETMonthly)
	pct("CET anual", s.CET)
	amount("Fluxo mensal líquido", sim.NetMonthlyCashFlow)

	return f, nil
}

func money(row *xlsx.Row, d decimal.Decimal) {
	row.AddCell().SetFloatWithFormat(d.InexactFloat64(), moneyFormat)
}

// WriteScheduleXLSX writes the schedule workbook to out.
func WriteScheduleXLSX(out io.Writer, sim model.FinancingSimulation) error {
	f, err := ScheduleWorkbook(sim)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(out), "export: write workbook")
}

// SaveScheduleXLSX writes the schedule workbook to path.
func SaveScheduleXLSX(path string, sim model.FinancingSimulation) error {
	f, err := ScheduleWorkbook(sim)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save workbook %s", path)
}
