package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/equipment"
	"github.com/sells-group/solar-viability/internal/finance"
	"github.com/sells-group/solar-viability/internal/irradiance"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/production"
	"github.com/sells-group/solar-viability/internal/proposal"
	"github.com/sells-group/solar-viability/internal/ratefeed"
	"github.com/sells-group/solar-viability/internal/resilience"
	"github.com/sells-group/solar-viability/internal/store"
	"github.com/sells-group/solar-viability/internal/tariff"
	"github.com/sells-group/solar-viability/internal/viability"
	"github.com/sells-group/solar-viability/pkg/bacen"
)

// appEnv holds the wired services shared by serve, viability and worker.
type appEnv struct {
	Store     store.Store // may be nil
	Breakers  *resilience.Registry
	Feed      *ratefeed.Feed
	Tariffs   *tariff.Resolver
	Scheduler *finance.Scheduler
	Engine    *viability.Engine
	Proposals *proposal.Service // nil without a store
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp wires the engine from cfg. Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, Breakers: newBreakers()}

	provider, err := irradiance.NewProvider(cfg.Irradiance)
	if err != nil {
		env.Close()
		return nil, err
	}
	est := production.NewEstimator(equipment.Default(), irradiance.NewGuarded(provider, env.Breakers), cfg.Production)

	env.Tariffs, err = newTariffResolver(st)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Feed = newFeed(env.Breakers)
	env.Scheduler = finance.NewScheduler(cfg.Financing)
	env.Engine = viability.New(est, env.Feed, env.Tariffs, env.Scheduler,
		viability.WithPolicy(cfg.Viability.CompliancePolicy),
		viability.WithProjection(finance.ProjectionFromConfig(cfg.Finance)),
	)
	if st != nil {
		env.Proposals = proposal.NewService(st, proposalTTL())
	}

	zap.L().Debug("app initialized",
		zap.String("irradiance", provider.Name()),
		zap.String("tariff_source", cfg.Tariff.Source),
		zap.String("store", cfg.Store.Driver),
		zap.String("compliance_policy", cfg.Viability.CompliancePolicy),
	)
	return env, nil
}

// initStore opens and migrates the configured store. It returns nil when no
// driver is configured.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// requireStore opens the store for commands that cannot work without one.
func requireStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("store.driver is not configured (SOLAR_STORE_DRIVER)")
	}
	return st, nil
}

func newBreakers() *resilience.Registry {
	return resilience.NewRegistry(resilience.FromConfig(cfg.Breaker))
}

func newFeed(breakers *resilience.Registry) *ratefeed.Feed {
	client := bacen.NewClient(
		bacen.WithBaseURL(cfg.Bacen.BaseURL),
		bacen.WithRateLimit(cfg.Bacen.RequestsPerSec),
	)
	return ratefeed.New(client, cfg.Bacen, breakers)
}

func newTariffResolver(st store.Store) (*tariff.Resolver, error) {
	switch cfg.Tariff.Source {
	case "store":
		if st == nil {
			return nil, eris.New("tariff source \"store\" requires a store")
		}
		return tariff.NewResolver(tariff.NewStoreSource(st)), nil
	default:
		var overrides []model.TariffRate
		if cfg.Tariff.TablePath != "" {
			rows, err := tariff.LoadTable(cfg.Tariff.TablePath)
			if err != nil {
				return nil, err
			}
			overrides = rows
		}
		return tariff.NewResolver(tariff.NewStaticSource(overrides...)), nil
	}
}

func proposalTTL() time.Duration {
	return time.Duration(cfg.Financing.ProposalTTLHrs) * time.Hour
}
