// Package store persists tariff rates and financing proposals.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ProposalFilter specifies criteria for listing proposals.
type ProposalFilter struct {
	Status model.ProposalStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface.
type Store interface {
	// Tariff rates
	ListTariffRates(ctx context.Context, uf model.UF) ([]model.TariffRate, error)
	UpsertTariffRates(ctx context.Context, rates []model.TariffRate) error

	// Proposals
	CreateProposal(ctx context.Context, p *model.FinancingProposal) error
	GetProposal(ctx context.Context, id string) (*model.FinancingProposal, error)
	UpdateProposal(ctx context.Context, p *model.FinancingProposal) error
	ListProposals(ctx context.Context, filter ProposalFilter) ([]model.FinancingProposal, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured driver. It returns nil, nil when no driver is set.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func limitOrDefault(n int) int {
	if n <= 0 || n > 500 {
		return 100
	}
	return n
}
