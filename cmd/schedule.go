package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/export"
	"github.com/sells-group/solar-viability/internal/finance"
	"github.com/sells-group/solar-viability/internal/model"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Simulate a PRICE or SAC financing schedule",
	Long:  "Generates the installment table, IOF and CET for a loan. Without --rate the monthly rate is SELIC plus --spread.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := financialInputs(cmd)
		if err != nil {
			return err
		}

		var selic float64
		if in.MonthlyRate == nil {
			rates := newFeed(newBreakers()).Fetch(cmd.Context())
			selic = rates.Selic.Value
			if !rates.Selic.Validated {
				zap.L().Warn("schedule: using default SELIC", zap.Float64("selic", selic))
			}
		}

		savingsStr, _ := cmd.Flags().GetString("monthly-savings")
		savings, err := decimalFlag("monthly-savings", savingsStr)
		if err != nil {
			return err
		}

		sim, err := finance.NewScheduler(cfg.Financing).Simulate(in, selic, savings)
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := export.SaveScheduleXLSX(path, sim); err != nil {
				return err
			}
			zap.L().Info("schedule written", zap.String("path", path))
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(cmd.OutOrStdout(), sim)
		}
		export.WriteSchedule(cmd.OutOrStdout(), sim)
		return nil
	},
}

func financialInputs(cmd *cobra.Command) (model.FinancialInputs, error) {
	f := cmd.Flags()
	amountStr, _ := f.GetString("amount")
	downStr, _ := f.GetString("down-payment")
	feeStr, _ := f.GetString("fee")
	periods, _ := f.GetInt("periods")
	system, _ := f.GetString("system")
	spread, _ := f.GetFloat64("spread")
	basis, _ := f.GetString("spread-basis")
	start, _ := f.GetString("start")

	in := model.FinancialInputs{
		Periods:     periods,
		System:      model.AmortizationSystem(system),
		Spread:      spread,
		SpreadBasis: model.SpreadBasis(basis),
	}
	var err error
	if in.Investment, err = decimalFlag("amount", amountStr); err != nil {
		return in, err
	}
	if in.DownPayment, err = decimalFlag("down-payment", downStr); err != nil {
		return in, err
	}
	if in.OriginationFee, err = decimalFlag("fee", feeStr); err != nil {
		return in, err
	}
	if f.Changed("rate") {
		r, _ := f.GetFloat64("rate")
		in.MonthlyRate = &r
	}
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return in, eris.Wrapf(err, "parse --start %q", start)
		}
		in.StartDate = &t
	}
	return in, nil
}

func decimalFlag(name, v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, model.NewValidationError(name, "not a number: %q", v)
	}
	return d, nil
}

func init() {
	f := scheduleCmd.Flags()
	f.String("amount", "", "investment amount in R$")
	f.String("down-payment", "", "down payment in R$")
	f.String("fee", "", "origination fee in R$, included in CET")
	f.Float64("rate", 0, "monthly rate in percent (overrides SELIC + spread)")
	f.Float64("spread", 0, "spread over SELIC in percent")
	f.String("spread-basis", "", "spread basis: annual (default) or monthly")
	f.Int("periods", 60, "number of monthly installments")
	f.String("system", "PRICE", "amortization system: PRICE or SAC")
	f.String("start", "", "contract date YYYY-MM-DD (default today)")
	f.String("monthly-savings", "", "monthly savings in R$ for the net cash flow")
	f.String("xlsx", "", "also write the schedule to this xlsx file")
	f.Bool("json", false, "print JSON instead of a table")
	_ = scheduleCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(scheduleCmd)
}
