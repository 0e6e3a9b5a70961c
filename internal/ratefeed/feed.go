// Package ratefeed fetches the BACEN reference indices used to price financing.
package ratefeed

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
	"github.com/sells-group/solar-viability/internal/resilience"
	"github.com/sells-group/solar-viability/pkg/bacen"
)

// ServiceName is the breaker and Degraded service name of the feed.
const ServiceName = "bacen"

// Series names accepted by History.
const (
	SeriesSelic = "selic"
	SeriesCDI   = "cdi"
	SeriesIPCA  = "ipca"
)

// Source fetches reference rates.
type Source interface {
	Fetch(ctx context.Context) model.ReferenceRates
}

type series struct {
	name     string
	code     int
	fallback float64
	// signed series (monthly inflation) may legitimately be negative.
	signed   bool
}

// check rejects readings no rate can take.
func (s series) check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return eris.Wrapf(resilience.ErrMalformed, "ratefeed: %s reading %v is not finite", s.name, v)
	}
	if v < 0 && !s.signed {
		return eris.Wrapf(resilience.ErrMalformed, "ratefeed: %s reading %v is negative", s.name, v)
	}
	return nil
}

// Feed reads SELIC, CDI and IPCA from SGS, substituting static defaults for
// any series that cannot be fetched in time.
type Feed struct {
	client  bacen.Client
	breaker *resilience.Breaker
	timeout time.Duration
	selic   series
	cdi     series
	ipca    series
}

// New creates a Feed. Zero series codes fall back to the well-known SGS codes.
func New(client bacen.Client, cfg config.BacenConfig, breakers *resilience.Registry) *Feed {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Feed{
		client:  client,
		breaker: breakers.Get(ServiceName),
		timeout: timeout,
		selic:   series{name: SeriesSelic, code: orDefault(cfg.SelicSeries, bacen.SeriesSelic), fallback: cfg.Defaults.Selic},
		cdi:     series{name: SeriesCDI, code: orDefault(cfg.CDISeries, bacen.SeriesCDI), fallback: cfg.Defaults.CDI},
		ipca:    series{name: SeriesIPCA, code: orDefault(cfg.IPCASeries, bacen.SeriesIPCA), fallback: cfg.Defaults.IPCA, signed: true},
	}
}

// Fetch reads the three series concurrently, each under its own timeout.
// It never fails: a series that errors carries its default and Validated=false.
func (f *Feed) Fetch(ctx context.Context) model.ReferenceRates {
	var (
		out      model.ReferenceRates
		degraded [3]*model.Degraded
		g        errgroup.Group
	)
	targets := []struct {
		s   series
		dst *model.RateValue
	}{
		{f.selic, &out.Selic},
		{f.cdi, &out.CDI},
		{f.ipca, &out.IPCA},
	}
	for i, tg := range targets {
		g.Go(func() error {
			*tg.dst, degraded[i] = f.fetchOne(ctx, tg.s)
			return nil
		})
	}
	_ = g.Wait()

	out.Validated = true
	for _, d := range degraded {
		if d != nil {
			out.Validated = false
			out.Degraded = append(out.Degraded, *d)
		}
	}
	return out
}

func (f *Feed) fetchOne(ctx context.Context, s series) (model.RateValue, *model.Degraded) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	obs, err := resilience.Call(ctx, f.breaker, func(ctx context.Context) (bacen.Observation, error) {
		obs, err := f.client.Latest(ctx, s.code)
		if errors.Is(err, bacen.ErrInvalidValue) {
			return obs, eris.Wrapf(resilience.ErrMalformed, "ratefeed: %s: %v", s.name, err)
		}
		if err != nil {
			return obs, err
		}
		return obs, s.check(obs.Value)
	})
	monitoring.ObserveExternal(ServiceName, time.Since(start))
	if err != nil {
		reason := resilience.Reason(err)
		zap.L().Warn("ratefeed: using default rate",
			zap.String("series", s.name),
			zap.Int("code", s.code),
			zap.Float64("default", s.fallback),
			zap.String("reason", reason),
			zap.Error(err),
		)
		monitoring.IncDegraded(ServiceName+"."+s.name, reason)
		return model.RateValue{Series: s.code, Value: s.fallback},
			&model.Degraded{Service: ServiceName + "." + s.name, Reason: reason}
	}
	return model.RateValue{
		Series:    s.code,
		Value:     obs.Value,
		Date:      obs.Date.Format(time.DateOnly),
		Validated: true,
	}, nil
}

// History returns the observations of a named series between from and to.
func (f *Feed) History(ctx context.Context, name string, from, to time.Time) ([]bacen.Observation, error) {
	var s series
	switch name {
	case SeriesSelic:
		s = f.selic
	case SeriesCDI:
		s = f.cdi
	case SeriesIPCA:
		s = f.ipca
	default:
		return nil, model.NewValidationError("series", "unknown series %q", name)
	}
	obs, err := f.client.Range(ctx, s.code, from, to)
	if err != nil {
		return nil, eris.Wrapf(err, "ratefeed: history %s", name)
	}
	return obs, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
