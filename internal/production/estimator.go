// Package production estimates the energy yield of a PV system at a site.
package production

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/equipment"
	"github.com/sells-group/solar-viability/internal/irradiance"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
	"github.com/sells-group/solar-viability/internal/resilience"
)

// FallbackAnnualYield is the location-independent Brazilian yield assumption in kWh/kWp/year.
const FallbackAnnualYield = 1500.0

// SeasonalCurve distributes the fallback yield over the year, January first.
// It sums to 1.
var SeasonalCurve = [12]float64{0.095, 0.088, 0.090, 0.080, 0.073, 0.068, 0.072, 0.080, 0.083, 0.090, 0.089, 0.092}

// DefaultSimulationTimeout bounds a single irradiance simulation.
const DefaultSimulationTimeout = 30 * time.Second

// Estimator converts a system spec and a site into expected generation.
type Estimator struct {
	catalog     *equipment.Catalog
	provider    irradiance.Provider
	timeout     time.Duration
	minAmbientC float64
}

// NewEstimator creates an Estimator. The provider should already be wrapped
// in a circuit breaker when one is wanted.
func NewEstimator(catalog *equipment.Catalog, provider irradiance.Provider, cfg config.ProductionConfig) *Estimator {
	timeout := time.Duration(cfg.SimulationTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = DefaultSimulationTimeout
	}
	return &Estimator{
		catalog:     catalog,
		provider:    provider,
		timeout:     timeout,
		minAmbientC: cfg.MinAmbientTempC,
	}
}

// Estimate returns the system's monthly and annual generation. A failed
// simulation is replaced by the fallback yield and reported in Degraded; only
// unknown equipment or an invalid spec is an error. An incompatible string
// layout is reported in MPPT and the energy figures are still computed.
func (e *Estimator) Estimate(ctx context.Context, loc model.Location, spec model.SystemSpec) (model.EnergyEstimate, error) {
	if err := spec.Validate(); err != nil {
		return model.EnergyEstimate{}, err
	}
	panel, err := e.catalog.Panel(spec.PanelID)
	if err != nil {
		return model.EnergyEstimate{}, err
	}
	inv, err := e.catalog.Inverter(spec.InverterID)
	if err != nil {
		return model.EnergyEstimate{}, err
	}

	kwp := spec.SizeKWp(panel.RatedWatts)
	derate := spec.Losses.Derate()

	yield := e.simulate(ctx, irradiance.Request{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Altitude:  loc.Altitude,
		Timezone:  loc.Timezone,
		Tilt:      spec.SurfaceTilt,
		Azimuth:   spec.SurfaceAzimuth,
	})

	est := model.EnergyEstimate{
		SystemSizeKWp: round(kwp, 3),
		Derate:        round(derate, 6),
		Source:        model.EnergySourceSimulation,
		Degraded:      yield.Degraded,
		MPPT:          equipment.CheckMPPT(panel, inv, spec.ModulesPerString, spec.Strings, e.minAmbientC),
	}
	if yield.Fallback() {
		est.Source = model.EnergySourceFallback
	}
	for m, y := range yield.Value {
		est.MonthlyGeneration[m] = round(kwp*y*derate, 2)
		est.AnnualGenerationKWh += est.MonthlyGeneration[m]
	}
	est.AnnualGenerationKWh = round(est.AnnualGenerationKWh, 2)
	if kwp > 0 {
		est.SpecificYield = round(est.AnnualGenerationKWh/kwp, 2)
	}

	if !est.MPPT.Compatible {
		zap.L().Info("production: string layout incompatible with inverter",
			zap.String("inverter_id", inv.ID),
			zap.String("panel_id", panel.ID),
			zap.Strings("issues", est.MPPT.Issues),
		)
	}
	return est, nil
}

// simulate runs the provider under the estimator's timeout and substitutes
// the seasonal fallback on any failure.
func (e *Estimator) simulate(ctx context.Context, req irradiance.Request) model.Outcome[irradiance.Yield] {
	if e.provider == nil {
		return fallback("irradiance", resilience.ReasonUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	y, err := e.provider.Simulate(ctx, req)
	if err == nil {
		err = y.Validate()
	}
	if err != nil {
		reason := resilience.Reason(err)
		zap.L().Warn("production: simulation failed, using fallback yield",
			zap.String("service", e.provider.Name()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		monitoring.IncDegraded(e.provider.Name(), reason)
		return fallback(e.provider.Name(), reason)
	}
	return model.Outcome[irradiance.Yield]{Value: y}
}

// FallbackYield is FallbackAnnualYield spread over SeasonalCurve.
func FallbackYield() irradiance.Yield {
	var y irradiance.Yield
	for m, share := range SeasonalCurve {
		y[m] = FallbackAnnualYield * share
	}
	return y
}

func fallback(service, reason string) model.Outcome[irradiance.Yield] {
	return model.Outcome[irradiance.Yield]{
		Value:    FallbackYield(),
		Degraded: &model.Degraded{Service: service, Reason: reason},
	}
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
