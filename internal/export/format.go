// Package export renders reports and financing schedules for people: pt-BR
// text tables for the terminal and xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/pkg/bacen"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// BRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func BRL(d decimal.Decimal) string {
	return printer.Sprintf("R$ %.2f", d.Round(2).InexactFloat64())
}

// Percent formats v (already in percent) with places decimals.
func Percent(v float64, places int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df%%%%", places), v)
}

// Number formats v with places decimals in pt-BR notation.
func Number(v float64, places int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", places), v)
}

// dateBR is the dd/mm/yyyy layout used on Brazilian documents.
const dateBR = "02/01/2006"

// WriteSchedule writes the installment table followed by the summary.
func WriteSchedule(out io.Writer, sim model.FinancingSimulation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "Nº\tVENCIMENTO\tAMORTIZAÇÃO\tJUROS\tPRESTAÇÃO\tSALDO\t")
	for _, e := range sim.Schedule {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			e.InstallmentNumber,
			e.DueDate.Format(dateBR),
			BRL(e.PrincipalAmount),
			BRL(e.InterestAmount),
			BRL(e.TotalAmount),
			BRL(e.RemainingBalance),
		)
	}
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	WriteSummary(out, sim)
}

// WriteSummary writes the schedule summary as aligned key/value lines.
func WriteSummary(out io.Writer, sim model.FinancingSimulation) {
	s := sim.Summary
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Sistema:\t%s, %d parcelas\n", sim.System, sim.Periods)
	_, _ = fmt.Fprintf(w, "Valor financiado:\t%s\n", BRL(s.FinancedAmount))
	_, _ = fmt.Fprintf(w, "Taxa:\t%s a.m. (%s a.a.)\n", Percent(s.MonthlyRatePct, 4), Percent(s.AnnualRatePct, 2))
	_, _ = fmt.Fprintf(w, "Total pago:\t%s\n", BRL(s.TotalPaid))
	_, _ = fmt.Fprintf(w, "Total de juros:\t%s\n", BRL(s.TotalInterest))
	_, _ = fmt.Fprintf(w, "IOF:\t%s\n", BRL(s.IOF))
	_, _ = fmt.Fprintf(w, "CET:\t%s a.m. (%s a.a.)\n", Percent(s.CETMonthly, 4), Percent(s.CET, 2))
	_, _ = fmt.Fprintf(w, "Fluxo mensal líquido:\t%s\n", BRL(sim.NetMonthlyCashFlow))
	_ = w.Flush()
}

// WriteTariffs writes resolved tariffs one per line.
func WriteTariffs(out io.Writer, ts []model.TariffStructure) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "UF\tCONCESSIONÁRIA\tGRUPO\tMODALIDADE\tCLASSE\tBANDEIRA\tBASE\tTARIFA\tREFERÊNCIA")
	for _, t := range ts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.UF, t.ConcessionariaName, t.Grupo, t.Modalidade, t.Classe, t.Bandeira,
			rate(t.BaseRate), rate(t.Rate), t.ReferenceDate)
	}
	_ = w.Flush()
}

// rate formats an R$/kWh tariff with the five decimals ANEEL publishes.
func rate(d decimal.Decimal) string {
	return printer.Sprintf("%.5f", d.InexactFloat64())
}

// WriteRates writes the reference indices and whether each was fetched live.
func WriteRates(out io.Writer, r model.ReferenceRates) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ÍNDICE\tSÉRIE\tVALOR\tDATA\tFONTE")
	for _, row := range []struct {
		name string
		v    model.RateValue
	}{{"SELIC", r.Selic}, {"CDI", r.CDI}, {"IPCA", r.IPCA}} {
		source := "padrão"
		if row.v.Validated {
			source = "BACEN"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", row.name, row.v.Series, Percent(row.v.Value, 2), row.v.Date, source)
	}
	_ = w.Flush()
}

// WriteObservations writes a series history as date/value lines.
func WriteObservations(out io.Writer, obs []bacen.Observation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATA\tVALOR")
	for _, o := range obs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", o.Date.Format(dateBR), Number(o.Value, 2))
	}
	_ = w.Flush()
}

// WriteReport writes a short human summary of a viability report.
func WriteReport(out io.Writer, r *model.ViabilityReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	e := r.Energy
	_, _ = fmt.Fprintf(w, "Relatório:\t%s\n", r.ReportID)
	_, _ = fmt.Fprintf(w, "Potência:\t%s kWp\n", Number(e.SystemSizeKWp, 2))
	_, _ = fmt.Fprintf(w, "Geração anual:\t%s kWh (%s)\n", Number(e.AnnualGenerationKWh, 0), e.Source)
	mppt := "compatível"
	if !r.MPPTValidation.Compatible {
		mppt = "incompatível: " + strings.Join(r.MPPTValidation.Issues, "; ")
	}
	_, _ = fmt.Fprintf(w, "MPPT:\t%s\n", mppt)
	_, _ = fmt.Fprintf(w, "Tarifa:\t%s R$/kWh (%s, %s)\n", rate(r.TariffInfo.Rate), r.TariffInfo.UF, r.TariffInfo.ConcessionariaName)
	comp := "dentro dos limites"
	if !r.Compliance.Valid {
		comp = r.Compliance.Message
	}
	_, _ = fmt.Fprintf(w, "Oversizing:\t%s (%s)\n", Percent(r.Compliance.OversizingPct, 1), comp)
	f := r.Financial
	_, _ = fmt.Fprintf(w, "Economia mensal:\t%s\n", BRL(f.MonthlySavings))
	_, _ = fmt.Fprintf(w, "Payback:\t%s anos\n", Number(f.PaybackYears, 1))
	if f.IRRPct != nil {
		_, _ = fmt.Fprintf(w, "TIR:\t%s a.a. (SELIC %s)\n", Percent(*f.IRRPct, 2), Percent(f.BenchmarkPct, 2))
	}
	_, _ = fmt.Fprintf(w, "Parcela inicial:\t%s\n", BRL(f.FinancingSimulation.Summary.FirstInstallment))
	_, _ = fmt.Fprintf(w, "Fluxo mensal líquido:\t%s\n", BRL(f.FinancingSimulation.NetMonthlyCashFlow))
	for _, d := range r.Degraded {
		_, _ = fmt.Fprintf(w, "Fallback:\t%s (%s)\n", d.Service, d.Reason)
	}
	_ = w.Flush()
}
