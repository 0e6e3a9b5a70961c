// Package viability sequences production, tariff, compliance, savings and
// financing into one report.
package viability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-viability/internal/compliance"
	"github.com/sells-group/solar-viability/internal/finance"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
	"github.com/sells-group/solar-viability/internal/ratefeed"
	"github.com/sells-group/solar-viability/internal/tariff"
)

// Compliance policies.
const (
	PolicyAnnotate = "annotate"
	PolicyReject   = "reject"
)

// Estimator produces the energy estimate.
type Estimator interface {
	Estimate(ctx context.Context, loc model.Location, spec model.SystemSpec) (model.EnergyEstimate, error)
}

// TariffResolver resolves the consumer's tariff.
type TariffResolver interface {
	Resolve(ctx context.Context, q tariff.Query) (model.TariffStructure, error)
}

// Scheduler simulates the financing.
type Scheduler interface {
	Simulate(in model.FinancialInputs, selicPct float64, monthlySavings decimal.Decimal) (model.FinancingSimulation, error)
}

// Engine is the single entry point behind the HTTP and CLI adapters. It holds
// no per-request state.
type Engine struct {
	estimator  Estimator
	rates      ratefeed.Source
	tariffs    TariffResolver
	scheduler  Scheduler
	projection finance.Projection
	policy     string
	now        func() time.Time
	newID      func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the compliance policy. Unknown values keep annotate.
func WithPolicy(p string) Option {
	return func(e *Engine) {
		if p == PolicyReject {
			e.policy = PolicyReject
		}
	}
}

// WithProjection sets the savings projection assumptions.
func WithProjection(p finance.Projection) Option {
	return func(e *Engine) { e.projection = p }
}

// WithClock sets the report timestamp clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the report ID generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an Engine.
func New(est Estimator, rates ratefeed.Source, tariffs TariffResolver, sched Scheduler, opts ...Option) *Engine {
	e := &Engine{
		estimator:  est,
		rates:      rates,
		tariffs:    tariffs,
		scheduler:  sched,
		projection: finance.DefaultProjection,
		policy:     PolicyAnnotate,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// TariffQuery derives the tariff query of a request.
func TariffQuery(req model.ViabilityRequest) tariff.Query {
	return tariff.Query{
		UF:             req.Location.UF,
		Grupo:          req.Consumption.Grupo,
		Classe:         req.Consumption.Classe,
		Modalidade:     req.Consumption.Modalidade,
		Bandeira:       req.Consumption.Bandeira,
		Concessionaria: req.Consumption.Concessionaria,
	}
}

// Evaluate builds the viability report. Only validation, financial
// configuration and (under the reject policy) compliance errors are returned;
// unavailable external services degrade to their fallbacks.
func (e *Engine) Evaluate(ctx context.Context, req model.ViabilityRequest) (*model.ViabilityReport, error) {
	start := time.Now()
	report, err := e.evaluate(ctx, req)
	result := monitoring.ResultSuccess
	if err != nil {
		result = monitoring.ResultError
	}
	monitoring.ObserveEvaluation(result, time.Since(start))
	return report, err
}

func (e *Engine) evaluate(ctx context.Context, req model.ViabilityRequest) (*model.ViabilityReport, error) {
	if err := req.Validate(); err != nil {
		return nil, eris.Wrap(err, "viability: validate request")
	}

	var (
		energy     model.EnergyEstimate
		rates      model.ReferenceRates
		tariffInfo model.TariffStructure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		energy, err = e.estimator.Estimate(gctx, req.Location, req.System)
		return eris.Wrap(err, "viability: estimate production")
	})
	g.Go(func() error {
		rates = e.rates.Fetch(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		tariffInfo, err = e.tariffs.Resolve(gctx, TariffQuery(req))
		return eris.Wrap(err, "viability: resolve tariff")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comp, err := compliance.Validate(energy.SystemSizeKWp, req.Consumption.Annual())
	if err != nil {
		return nil, eris.Wrap(err, "viability: compliance")
	}
	monitoring.IncCompliance(comp.Valid)
	if !comp.Valid && e.policy == PolicyReject {
		return nil, &model.ComplianceError{Result: comp}
	}

	savings, err := finance.ComputeSavings(finance.SavingsInput{
		Production:  energy.MonthlyGeneration,
		Consumption: req.Consumption.Monthly(),
		Rate:        tariffInfo.Rate,
		Investment:  req.Financial.Investment,
		SelicPct:    rates.Selic.Value,
	}, e.projection)
	if err != nil {
		return nil, eris.Wrap(err, "viability: compute savings")
	}

	sim, err := e.scheduler.Simulate(req.Financial, rates.Selic.Value, savings.MonthlySavings)
	if err != nil {
		return nil, eris.Wrap(err, "viability: simulate financing")
	}

	report := &model.ViabilityReport{
		Success:         true,
		ReportID:        e.newID(),
		GeneratedAt:     e.now().UTC(),
		Energy:          energy,
		MPPTValidation:  energy.MPPT,
		TariffInfo:      tariffInfo,
		Compliance:      comp,
		Financial:       model.FinancialReport{Savings: savings, FinancingSimulation: sim},
		BacenValidation: rates,
	}
	if energy.Degraded != nil {
		report.Degraded = append(report.Degraded, *energy.Degraded)
	}
	report.Degraded = append(report.Degraded, rates.Degraded...)

	zap.L().Info("viability: evaluated",
		zap.String("report_id", report.ReportID),
		zap.String("uf", string(req.Location.UF)),
		zap.Float64("system_size_kwp", energy.SystemSizeKWp),
		zap.Float64("annual_generation_kwh", energy.AnnualGenerationKWh),
		zap.Bool("compliant", comp.Valid),
		zap.Int("degraded", len(report.Degraded)),
	)
	return report, nil
}
