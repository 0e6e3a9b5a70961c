package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-viability/internal/export"
	"github.com/sells-group/solar-viability/internal/model"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show the current SELIC, CDI and IPCA readings",
	Long:  "Fetches the reference indices from the BACEN SGS API. Unreachable series fall back to configured defaults and are reported as such.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rates := newFeed(newBreakers()).Fetch(cmd.Context())
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(cmd.OutOrStdout(), rates)
		}
		export.WriteRates(cmd.OutOrStdout(), rates)
		return nil
	},
}

var ratesHistoryCmd = &cobra.Command{
	Use:   "history <selic|cdi|ipca>",
	Short: "Show a reference index over a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		from, to, err := historyRange(fromStr, toStr, time.Now())
		if err != nil {
			return err
		}

		obs, err := newFeed(newBreakers()).History(cmd.Context(), args[0], from, to)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeIndented(cmd.OutOrStdout(), obs)
		}
		export.WriteObservations(cmd.OutOrStdout(), obs)
		return nil
	},
}

// historyRange parses --from/--to, defaulting to the year up to now.
func historyRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
	to := now.UTC().Truncate(24 * time.Hour)
	if toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "parse --to %q", toStr)
		}
		to = t
	}
	from := to.AddDate(-1, 0, 0)
	if fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, eris.Wrapf(err, "parse --from %q", fromStr)
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, model.NewValidationError("from", "must not be after --to")
	}
	return from, to, nil
}

func init() {
	ratesCmd.PersistentFlags().Bool("json", false, "print JSON instead of a table")
	ratesHistoryCmd.Flags().String("from", "", "start date YYYY-MM-DD (default one year before --to)")
	ratesHistoryCmd.Flags().String("to", "", "end date YYYY-MM-DD (default today)")
	ratesCmd.AddCommand(ratesHistoryCmd)
	rootCmd.AddCommand(ratesCmd)
}
