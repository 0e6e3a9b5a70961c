package irradiance

import (
	"context"
	"time"

	"github.com/sells-group/solar-viability/internal/monitoring"
	"github.com/sells-group/solar-viability/internal/resilience"
)

// Guarded wraps a Provider with a circuit breaker.
type Guarded struct {
	inner   Provider
	breaker *resilience.Breaker
}

// NewGuarded wraps p with the breaker registered under p's name.
func NewGuarded(p Provider, breakers *resilience.Registry) *Guarded {
	return &Guarded{inner: p, breaker: breakers.Get(p.Name())}
}

// Name implements Provider.
func (g *Guarded) Name() string { return g.inner.Name() }

// Simulate runs the inner provider unless the circuit is open.
func (g *Guarded) Simulate(ctx context.Context, req Request) (Yield, error) {
	start := time.Now()
	defer func() { monitoring.ObserveExternal(g.inner.Name(), time.Since(start)) }()
	return resilience.Call(ctx, g.breaker, func(ctx context.Context) (Yield, error) {
		return g.inner.Simulate(ctx, req)
	})
}
