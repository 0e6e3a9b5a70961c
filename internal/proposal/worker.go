package proposal

import (
	"context"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

// DefaultTaskQueue is used when no task queue is configured.
const DefaultTaskQueue = "solar-proposals"

// Dial connects to the Temporal frontend, logging through the global zap logger.
func Dial(cfg config.TemporalConfig) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    zapAdapter{zap.L().Sugar()},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "proposal: dial temporal %s", cfg.HostPort)
	}
	return c, nil
}

// NewWorker registers the proposal workflow and its activities on taskQueue.
func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(ProposalWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Start launches a proposal workflow and returns its workflow ID.
func Start(ctx context.Context, c client.Client, taskQueue string, in WorkflowInput) (string, error) {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{TaskQueue: taskQueue}, ProposalWorkflow, in)
	if err != nil {
		return "", eris.Wrap(err, "proposal: start workflow")
	}
	zap.L().Info("proposal: workflow started",
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	return run.GetID(), nil
}

// Signal sends a decision to a running proposal workflow. reason is only
// used by SignalCancel.
func Signal(ctx context.Context, c client.Client, workflowID, signal, reason string) error {
	var arg any
	switch signal {
	case SignalApprove, SignalContract:
	case SignalCancel:
		arg = reason
	default:
		return model.NewValidationError("signal", "unknown signal %q", signal)
	}
	if err := c.SignalWorkflow(ctx, workflowID, "", signal, arg); err != nil {
		return eris.Wrapf(err, "proposal: signal %s %s", signal, workflowID)
	}
	return nil
}

// Status queries the current status of a proposal workflow.
func Status(ctx context.Context, c client.Client, workflowID string) (model.ProposalStatus, error) {
	v, err := c.QueryWorkflow(ctx, workflowID, "", QueryStatus)
	if err != nil {
		return "", eris.Wrapf(err, "proposal: query %s", workflowID)
	}
	var s model.ProposalStatus
	if err := v.Get(&s); err != nil {
		return "", eris.Wrap(err, "proposal: decode status")
	}
	return s, nil
}

type zapAdapter struct {
	s *zap.SugaredLogger
}

func (z zapAdapter) Debug(msg string, keyvals ...any) { z.s.Debugw(msg, keyvals...) }
func (z zapAdapter) Info(msg string, keyvals ...any)  { z.s.Infow(msg, keyvals...) }
func (z zapAdapter) Warn(msg string, keyvals ...any)  { z.s.Warnw(msg, keyvals...) }
func (z zapAdapter) Error(msg string, keyvals ...any) { z.s.Errorw(msg, keyvals...) }
