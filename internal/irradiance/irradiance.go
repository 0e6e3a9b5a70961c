// Package irradiance supplies monthly specific yields (kWh/kWp before system
// losses) from an external solar simulation.
package irradiance

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/resilience"
)

// Request is the site and array geometry to simulate.
type Request struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Timezone  string
	// Tilt in degrees from horizontal.
	Tilt float64
	// Azimuth in degrees clockwise from north.
	Azimuth float64
}

// Yield is twelve monthly specific yields in kWh/kWp, January first.
type Yield [12]float64

// Annual sums the monthly yields.
func (y Yield) Annual() float64 {
	var sum float64
	for _, v := range y {
		sum += v
	}
	return sum
}

// Validate rejects outputs a real simulation cannot produce.
func (y Yield) Validate() error {
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return eris.Wrapf(resilience.ErrMalformed, "irradiance: month %d yield %v", i+1, v)
		}
		// Even the best sites stay under ~300 kWh/kWp in a month.
		if v > 400 {
			return eris.Wrapf(resilience.ErrMalformed, "irradiance: month %d yield %v kWh/kWp is implausible", i+1, v)
		}
	}
	if y.Annual() <= 0 {
		return eris.Wrap(resilience.ErrMalformed, "irradiance: all-zero yield")
	}
	return nil
}

// Provider runs a solar simulation.
type Provider interface {
	// Name identifies the provider in logs, metrics and Degraded records.
	Name() string
	Simulate(ctx context.Context, req Request) (Yield, error)
}

// NewProvider creates a Provider based on config.
func NewProvider(cfg config.IrradianceConfig) (Provider, error) {
	switch cfg.Provider {
	case "process", "":
		return NewProcess(cfg.BinPath, cfg.Args...), nil
	case "pvgis":
		var opts []PVGISOption
		if cfg.PVGISURL != "" {
			opts = append(opts, WithPVGISBaseURL(cfg.PVGISURL))
		}
		if cfg.PVGISRadDB != "" {
			opts = append(opts, WithRadDatabase(cfg.PVGISRadDB))
		}
		return NewPVGIS(opts...), nil
	case "none":
		return None{}, nil
	default:
		return nil, eris.Errorf("irradiance: unknown provider %q", cfg.Provider)
	}
}
