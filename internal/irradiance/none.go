package irradiance

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/solar-viability/internal/resilience"
)

// None is a provider that is always unavailable, forcing the statistical fallback.
type None struct{}

// Name implements Provider.
func (None) Name() string { return "irradiance.none" }

// Simulate always fails with resilience.ErrUnavailable.
func (None) Simulate(context.Context, Request) (Yield, error) {
	return Yield{}, eris.Wrap(resilience.ErrUnavailable, "irradiance: provider disabled")
}
