package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/solar-viability/internal/export"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/proposal"
	"github.com/sells-group/solar-viability/internal/store"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Manage financing proposals",
}

var proposalStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a proposal workflow from a viability request",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		req, err := readRequest(cmd.InOrStdin(), input)
		if err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}

		c, err := proposal.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		if ttl <= 0 {
			ttl = proposalTTL()
		}
		id, err := proposal.Start(cmd.Context(), c, cfg.Temporal.TaskQueue, proposal.WorkflowInput{Request: req, TTL: ttl})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var proposalSignalCmd = &cobra.Command{
	Use:   "signal <workflow-id> <approve|contract|cancel>",
	Short: "Send a decision to a proposal workflow",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")

		c, err := proposal.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		return proposal.Signal(cmd.Context(), c, args[0], args[1], reason)
	},
}

var proposalStatusCmd = &cobra.Command{
	Use:   "status <workflow-id>",
	Short: "Query the status of a proposal workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := proposal.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		s, err := proposal.Status(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

var proposalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored proposals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc := proposal.NewService(st, proposalTTL())
		ps, err := svc.List(ctx, store.ProposalFilter{Status: model.ProposalStatus(status), Limit: limit})
		if err != nil {
			return err
		}
		formatProposals(cmd.OutOrStdout(), ps)
		return nil
	},
}

func formatProposals(out io.Writer, ps []model.FinancingProposal) {
	if len(ps) == 0 {
		_, _ = fmt.Fprintln(out, "No proposals found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSYSTEM\tPERIODS\tINSTALLMENT\tEXPIRES")
	for _, p := range ps {
		installment := "-"
		if len(p.Financing.Schedule) > 0 {
			installment = export.BRL(p.Financing.Schedule[0].TotalAmount)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Status, p.Financing.System, p.Financing.Periods, installment,
			p.ExpiresAt.UTC().Format(time.RFC3339))
	}
	_ = w.Flush()
}

func init() {
	proposalStartCmd.Flags().String("input", "-", "viability request JSON file (- for stdin)")
	proposalStartCmd.Flags().Duration("ttl", 0, "approval deadline (default financing.proposal_ttl_hours)")
	proposalSignalCmd.Flags().String("reason", "", "cancellation reason")
	proposalListCmd.Flags().String("status", "", "filter by status")
	proposalListCmd.Flags().Int("limit", 50, "maximum proposals to list")

	proposalCmd.AddCommand(proposalStartCmd, proposalSignalCmd, proposalStatusCmd, proposalListCmd)
	rootCmd.AddCommand(proposalCmd)
}
