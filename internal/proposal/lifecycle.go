// Package proposal manages the lifecycle of financing proposals: creation
// from a viability report, customer decisions and expiry.
package proposal

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/model"
)

// DefaultTTL is how long a proposal stays open for a decision.
const DefaultTTL = 72 * time.Hour

// ReasonExpired is the cancel reason recorded when a pending proposal times out.
const ReasonExpired = "expired"

// Errors returned by the transitions.
var (
	ErrInvalidTransition = eris.New("proposal: invalid transition")
	ErrExpired           = eris.New("proposal: expired")
)

// New creates a pending proposal carrying the report's financing simulation.
func New(report *model.ViabilityReport, ttl time.Duration, now time.Time) *model.FinancingProposal {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	return &model.FinancingProposal{
		ID:             uuid.NewString(),
		ReportID:       report.ReportID,
		Status:         model.ProposalPending,
		Financing:      report.Financial.FinancingSimulation,
		MonthlySavings: report.Financial.MonthlySavings,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Approve moves a pending proposal to approved. A pending proposal past its
// expiry cannot be approved.
func Approve(p *model.FinancingProposal, now time.Time) error {
	if p.Status == model.ProposalPending && expired(p, now) {
		return eris.Wrapf(ErrExpired, "proposal %s expired at %s", p.ID, p.ExpiresAt.Format(time.RFC3339))
	}
	return transition(p, model.ProposalApproved, now)
}

// Contract moves an approved proposal to contracted.
func Contract(p *model.FinancingProposal, now time.Time) error {
	return transition(p, model.ProposalContracted, now)
}

// Cancel cancels a proposal that is not yet contracted or cancelled.
func Cancel(p *model.FinancingProposal, reason string, now time.Time) error {
	if err := transition(p, model.ProposalCancelled, now); err != nil {
		return err
	}
	p.CancelReason = reason
	return nil
}

// Expire cancels a pending proposal whose expiry has passed. It reports
// whether the proposal changed.
func Expire(p *model.FinancingProposal, now time.Time) bool {
	if p.Status != model.ProposalPending || !expired(p, now) {
		return false
	}
	_ = Cancel(p, ReasonExpired, now)
	return true
}

func expired(p *model.FinancingProposal, now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

func allowed(from, to model.ProposalStatus) bool {
	switch to {
	case model.ProposalApproved:
		return from == model.ProposalPending
	case model.ProposalContracted:
		return from == model.ProposalApproved
	case model.ProposalCancelled:
		return !from.Terminal()
	}
	return false
}

func transition(p *model.FinancingProposal, to model.ProposalStatus, now time.Time) error {
	if !allowed(p.Status, to) {
		return eris.Wrapf(ErrInvalidTransition, "proposal %s: %s to %s", p.ID, p.Status, to)
	}
	p.Status = to
	p.UpdatedAt = now.UTC()
	return nil
}
