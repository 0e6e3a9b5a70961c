package proposal

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
	"github.com/sells-group/solar-viability/internal/store"
)

// Repository is the slice of store.Store the service needs.
type Repository interface {
	CreateProposal(ctx context.Context, p *model.FinancingProposal) error
	GetProposal(ctx context.Context, id string) (*model.FinancingProposal, error)
	UpdateProposal(ctx context.Context, p *model.FinancingProposal) error
	ListProposals(ctx context.Context, filter store.ProposalFilter) ([]model.FinancingProposal, error)
}

// Service applies lifecycle transitions to persisted proposals.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. A non-positive ttl uses DefaultTTL.
func NewService(repo Repository, ttl time.Duration, opts ...ServiceOption) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{repo: repo, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create persists a pending proposal for report.
func (s *Service) Create(ctx context.Context, report *model.ViabilityReport) (*model.FinancingProposal, error) {
	p := New(report, s.ttl, s.now())
	if err := s.repo.CreateProposal(ctx, p); err != nil {
		return nil, eris.Wrap(err, "proposal: create")
	}
	monitoring.IncProposalTransition(string(p.Status))
	zap.L().Info("proposal: created",
		zap.String("proposal_id", p.ID),
		zap.String("report_id", p.ReportID),
		zap.Time("expires_at", p.ExpiresAt),
	)
	return p, nil
}

// Get loads a proposal, expiring it first when its deadline has passed.
func (s *Service) Get(ctx context.Context, id string) (*model.FinancingProposal, error) {
	p, err := s.repo.GetProposal(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "proposal: get %s", id)
	}
	if Expire(p, s.now()) {
		if err := s.save(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// List returns proposals matching filter.
func (s *Service) List(ctx context.Context, filter store.ProposalFilter) ([]model.FinancingProposal, error) {
	out, err := s.repo.ListProposals(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "proposal: list")
	}
	return out, nil
}

// Approve records the customer's approval.
func (s *Service) Approve(ctx context.Context, id string) (*model.FinancingProposal, error) {
	return s.apply(ctx, id, func(p *model.FinancingProposal, now time.Time) error {
		return Approve(p, now)
	})
}

// Contract records the signed contract.
func (s *Service) Contract(ctx context.Context, id string) (*model.FinancingProposal, error) {
	return s.apply(ctx, id, Contract)
}

// Cancel cancels the proposal with reason.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*model.FinancingProposal, error) {
	return s.apply(ctx, id, func(p *model.FinancingProposal, now time.Time) error {
		return Cancel(p, reason, now)
	})
}

func (s *Service) apply(ctx context.Context, id string, fn func(*model.FinancingProposal, time.Time) error) (*model.FinancingProposal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(p, s.now()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *model.FinancingProposal) error {
	if err := s.repo.UpdateProposal(ctx, p); err != nil {
		return eris.Wrapf(err, "proposal: update %s", p.ID)
	}
	monitoring.IncProposalTransition(string(p.Status))
	zap.L().Info("proposal: status changed",
		zap.String("proposal_id", p.ID),
		zap.String("status", string(p.Status)),
		zap.String("cancel_reason", p.CancelReason),
	)
	return nil
}
