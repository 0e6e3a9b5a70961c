// Package api exposes the viability engine and its supporting services over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/store"
	"github.com/sells-group/solar-viability/internal/tariff"
	"github.com/sells-group/solar-viability/pkg/bacen"
)

// Evaluator runs a viability evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, req model.ViabilityRequest) (*model.ViabilityReport, error)
}

// TariffResolver resolves single and batch tariff queries.
type TariffResolver interface {
	Resolve(ctx context.Context, q tariff.Query) (model.TariffStructure, error)
	ResolveBatch(ctx context.Context, qs []tariff.Query) ([]model.TariffStructure, error)
}

// RateFeed serves reference rates and their history.
type RateFeed interface {
	Fetch(ctx context.Context) model.ReferenceRates
	History(ctx context.Context, name string, from, to time.Time) ([]bacen.Observation, error)
}

// Scheduler simulates a financing plan.
type Scheduler interface {
	Simulate(in model.FinancialInputs, selicPct float64, monthlySavings decimal.Decimal) (model.FinancingSimulation, error)
}

// ProposalService manages persisted financing proposals.
type ProposalService interface {
	Create(ctx context.Context, report *model.ViabilityReport) (*model.FinancingProposal, error)
	Get(ctx context.Context, id string) (*model.FinancingProposal, error)
	List(ctx context.Context, filter store.ProposalFilter) ([]model.FinancingProposal, error)
	Approve(ctx context.Context, id string) (*model.FinancingProposal, error)
	Contract(ctx context.Context, id string) (*model.FinancingProposal, error)
	Cancel(ctx context.Context, id, reason string) (*model.FinancingProposal, error)
}

// BreakerStates reports circuit breaker states for /health.
type BreakerStates interface {
	States() map[string]string
}

// Deps are the services behind the router. Proposals and Breakers are optional.
type Deps struct {
	Engine         Evaluator
	Tariffs        TariffResolver
	Rates          RateFeed
	Scheduler      Scheduler
	Proposals      ProposalService
	Breakers       BreakerStates
	RequestTimeout time.Duration
	AllowedOrigins []string
	// Now is the clock for default history windows.
	Now func() time.Time
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type server struct {
	Deps
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 60 * time.Second
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &server{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/solar", func(r chi.Router) {
		r.Use(middleware.Timeout(d.RequestTimeout))

		r.Post("/viability", s.viability)
		r.Post("/tariffs", s.resolveTariff)
		r.Post("/tariffs/batch", s.resolveTariffBatch)
		r.Get("/rates", s.rates)
		r.Get("/rates/{series}/history", s.rateHistory)
		r.Post("/financing/schedule", s.schedule)

		if d.Proposals != nil {
			r.Route("/proposals", func(r chi.Router) {
				r.Post("/", s.createProposal)
				r.Get("/", s.listProposals)
				r.Get("/{id}", s.getProposal)
				r.Post("/{id}/approve", s.approveProposal)
				r.Post("/{id}/contract", s.contractProposal)
				r.Post("/{id}/cancel", s.cancelProposal)
			})
		}
	})
	return r
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.Breakers != nil {
		body["breakers"] = s.Breakers.States()
	}
	writeJSON(w, http.StatusOK, body)
}
