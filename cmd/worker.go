package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/proposal"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the proposal lifecycle worker",
	Long:  "Connects to Temporal and executes proposal workflows. Proposals are persisted when a store is configured.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		c, err := proposal.Dial(cfg.Temporal)
		if err != nil {
			return err
		}
		defer c.Close()

		acts := &proposal.Activities{Engine: env.Engine}
		if env.Store != nil {
			acts.Repo = env.Store
		}

		w := proposal.NewWorker(c, cfg.Temporal.TaskQueue, acts)
		zap.L().Info("proposal worker starting",
			zap.String("host_port", cfg.Temporal.HostPort),
			zap.String("task_queue", cfg.Temporal.TaskQueue),
			zap.Bool("persist", acts.Repo != nil),
		)
		if err := w.Run(worker.InterruptCh()); err != nil {
			return eris.Wrap(err, "proposal worker")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
