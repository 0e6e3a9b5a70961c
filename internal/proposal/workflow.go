package proposal

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
)

// Workflow signal and query names.
const (
	SignalApprove  = "approve"
	SignalContract = "contract"
	SignalCancel   = "cancel"
	QueryStatus    = "status"
)

// Application error types for failures that retrying cannot fix.
const (
	ErrTypeValidation = "ValidationError"
	ErrTypeFinancial  = "FinancialConfigurationError"
	ErrTypeCompliance = "ComplianceError"
)

// WorkflowInput starts a proposal workflow.
type WorkflowInput struct {
	Request model.ViabilityRequest `json:"request"`
	TTL     time.Duration          `json:"ttl"`
}

// BuildInput is the BuildSchedule activity argument. CreatedAt comes from
// workflow time so the proposal deadline matches the workflow timer.
type BuildInput struct {
	Request   model.ViabilityRequest `json:"request"`
	TTL       time.Duration          `json:"ttl"`
	CreatedAt time.Time              `json:"created_at"`
}

// Evaluator runs a viability evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, req model.ViabilityRequest) (*model.ViabilityReport, error)
}

// Activities are the proposal workflow's side effects.
type Activities struct {
	Engine Evaluator
	// Repo persists proposals when set.
	Repo Repository
}

// BuildSchedule evaluates the request and returns the pending proposal.
func (a *Activities) BuildSchedule(ctx context.Context, in BuildInput) (model.FinancingProposal, error) {
	report, err := a.Engine.Evaluate(ctx, in.Request)
	if err != nil {
		return model.FinancingProposal{}, nonRetryable(err)
	}
	p := New(report, in.TTL, in.CreatedAt)
	if a.Repo != nil {
		if err := a.Repo.CreateProposal(ctx, p); err != nil {
			return model.FinancingProposal{}, eris.Wrap(err, "proposal: create")
		}
	}
	monitoring.IncProposalTransition(string(p.Status))
	return *p, nil
}

// SaveProposal records a status change.
func (a *Activities) SaveProposal(ctx context.Context, p model.FinancingProposal) error {
	if a.Repo != nil {
		if err := a.Repo.UpdateProposal(ctx, &p); err != nil {
			return eris.Wrapf(err, "proposal: update %s", p.ID)
		}
	}
	monitoring.IncProposalTransition(string(p.Status))
	return nil
}

func nonRetryable(err error) error {
	var ce *model.ComplianceError
	switch {
	case model.IsValidation(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	case model.IsFinancialConfiguration(err):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeFinancial, err)
	case errors.As(err, &ce):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeCompliance, err)
	}
	return err
}

// ProposalWorkflow builds a proposal and then waits for the customer's
// decision. A pending proposal is cancelled when its deadline passes; an
// approved one waits for contract or cancel. Signals that would make an
// invalid transition are logged and ignored.
func ProposalWorkflow(ctx workflow.Context, in WorkflowInput) (model.FinancingProposal, error) {
	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})

	var a *Activities
	var p model.FinancingProposal
	err := workflow.ExecuteActivity(ctx, a.BuildSchedule, BuildInput{
		Request:   in.Request,
		TTL:       in.TTL,
		CreatedAt: workflow.Now(ctx),
	}).Get(ctx, &p)
	if err != nil {
		return model.FinancingProposal{}, err
	}

	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (model.ProposalStatus, error) {
		return p.Status, nil
	}); err != nil {
		return p, err
	}

	approveCh := workflow.GetSignalChannel(ctx, SignalApprove)
	contractCh := workflow.GetSignalChannel(ctx, SignalContract)
	cancelCh := workflow.GetSignalChannel(ctx, SignalCancel)

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	defer cancelTimer()
	expiry := workflow.NewTimer(timerCtx, p.ExpiresAt.Sub(workflow.Now(ctx)))

	sel := workflow.NewSelector(ctx)
	sel.AddReceive(approveCh, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, nil)
		if err := Approve(&p, workflow.Now(ctx)); err != nil {
			logger.Warn("proposal: approve ignored", "proposal_id", p.ID, "error", err.Error())
		}
	})
	sel.AddReceive(contractCh, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, nil)
		if err := Contract(&p, workflow.Now(ctx)); err != nil {
			logger.Warn("proposal: contract ignored", "proposal_id", p.ID, "error", err.Error())
		}
	})
	sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, _ bool) {
		var reason string
		c.Receive(ctx, &reason)
		if err := Cancel(&p, reason, workflow.Now(ctx)); err != nil {
			logger.Warn("proposal: cancel ignored", "proposal_id", p.ID, "error", err.Error())
		}
	})
	sel.AddFuture(expiry, func(workflow.Future) {
		if Expire(&p, workflow.Now(ctx)) {
			logger.Info("proposal: expired", "proposal_id", p.ID)
		}
	})

	for !p.Status.Terminal() {
		before := p.Status
		sel.Select(ctx)
		if p.Status == before {
			continue
		}
		if err := workflow.ExecuteActivity(ctx, a.SaveProposal, p).Get(ctx, nil); err != nil {
			return p, err
		}
	}
	return p, nil
}
