// Package tariff resolves the regulated electricity rate for a consumer.
package tariff

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/solar-viability/internal/model"
)

// MaxBatch is the batch ceiling: one query per UF.
const MaxBatch = 27

// Query identifies the tariff to resolve. Empty optional fields take defaults:
// classe from the grupo, modalidade convencional, bandeira verde, the utility
// marked default for the UF, and today's date.
type Query struct {
	UF             model.UF         `json:"uf"`
	Grupo          model.Grupo      `json:"grupo"`
	Classe         model.Classe     `json:"classe,omitempty"`
	Modalidade     model.Modalidade `json:"modalidade,omitempty"`
	Bandeira       model.Bandeira   `json:"bandeira,omitempty"`
	Concessionaria string           `json:"concessionaria,omitempty"`
	ReferenceDate  string           `json:"reference_date,omitempty"`
}

// normalize validates q and fills its defaults.
func (q Query) normalize(today string) (Query, error) {
	uf, ok := model.ParseUF(string(q.UF))
	if !ok {
		return q, model.NewValidationError("uf", "unknown UF %q", q.UF)
	}
	q.UF = uf
	if !q.Grupo.Valid() {
		return q, model.NewValidationError("grupo", "unknown grupo %q", q.Grupo)
	}
	if q.Classe == "" {
		q.Classe = q.Grupo.DefaultClasse()
	} else if !q.Classe.Valid() {
		return q, model.NewValidationError("classe", "unknown classe %q", q.Classe)
	}
	if q.Modalidade == "" {
		q.Modalidade = model.ModalidadeConvencional
	} else if !q.Modalidade.Valid() {
		return q, model.NewValidationError("modalidade", "unknown modalidade %q", q.Modalidade)
	}
	if q.Bandeira == "" {
		q.Bandeira = model.BandeiraVerde
	} else if !q.Bandeira.Valid() {
		return q, model.NewValidationError("bandeira", "unknown bandeira %q", q.Bandeira)
	}
	if q.ReferenceDate == "" {
		q.ReferenceDate = today
	} else if _, err := time.Parse(time.DateOnly, q.ReferenceDate); err != nil {
		return q, model.NewValidationError("reference_date", "must be YYYY-MM-DD, got %q", q.ReferenceDate)
	}
	q.Concessionaria = strings.ToLower(strings.TrimSpace(q.Concessionaria))
	if err := checkCompatibility(q.Grupo, q.Classe, q.Modalidade); err != nil {
		return q, err
	}
	return q, nil
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for the default reference date.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver turns a Query into a TariffStructure using a rate Source.
type Resolver struct {
	source Source
	now    func() time.Time
}

// NewResolver creates a Resolver over src.
func NewResolver(src Source, opts ...Option) *Resolver {
	r := &Resolver{source: src, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the tariff for q. Identical queries against an unchanged
// source return identical results.
func (r *Resolver) Resolve(ctx context.Context, q Query) (model.TariffStructure, error) {
	q, err := q.normalize(r.now().Format(time.DateOnly))
	if err != nil {
		return model.TariffStructure{}, err
	}

	rates, err := r.source.Rates(ctx, q.UF)
	if err != nil {
		return model.TariffStructure{}, eris.Wrap(err, "tariff: resolve")
	}
	if len(rates) == 0 {
		return model.TariffStructure{}, eris.Errorf("tariff: no rates for %s in %s source", q.UF, r.source.Name())
	}

	rate, err := pick(rates, q.Concessionaria)
	if err != nil {
		return model.TariffStructure{}, err
	}

	surcharge, _ := BandeiraSurcharge(q.Bandeira)
	energy := EnergyRate(rate.BaseRate, q.Grupo, q.Classe, q.Modalidade)

	ts := model.TariffStructure{
		UF:                 q.UF,
		Grupo:              q.Grupo,
		Modalidade:         q.Modalidade,
		Classe:             q.Classe,
		Bandeira:           q.Bandeira,
		Concessionaria:     rate.Concessionaria,
		ConcessionariaName: rate.Name,
		BaseRate:           energy,
		BandeiraSurcharge:  surcharge,
		Rate:               energy.Add(surcharge),
		ReferenceDate:      q.ReferenceDate,
		Source:             r.source.Name(),
	}

	zap.L().Debug("tariff: resolved",
		zap.String("uf", string(ts.UF)),
		zap.String("grupo", string(ts.Grupo)),
		zap.String("concessionaria", ts.Concessionaria),
		zap.String("rate", ts.Rate.String()),
	)
	return ts, nil
}

// ResolveBatch resolves up to MaxBatch queries, at most one per UF. Results
// are returned in input order; the first failure fails the batch.
func (r *Resolver) ResolveBatch(ctx context.Context, qs []Query) ([]model.TariffStructure, error) {
	if len(qs) == 0 {
		return nil, model.NewValidationError("queries", "at least one query is required")
	}
	if len(qs) > MaxBatch {
		return nil, model.NewValidationError("queries", "at most %d queries per batch, got %d", MaxBatch, len(qs))
	}
	seen := make(map[model.UF]int, len(qs))
	for i, q := range qs {
		uf, _ := model.ParseUF(string(q.UF))
		if j, dup := seen[uf]; dup && uf != "" {
			return nil, model.NewValidationError("queries", "UF %s repeated at positions %d and %d", uf, j+1, i+1)
		}
		seen[uf] = i
	}

	out := make([]model.TariffStructure, len(qs))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range qs {
		g.Go(func() error {
			ts, err := r.Resolve(gctx, q)
			if err != nil {
				return err
			}
			out[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func pick(rates []model.TariffRate, id string) (model.TariffRate, error) {
	if id == "" {
		for _, r := range rates {
			if r.IsDefault {
				return r, nil
			}
		}
		return rates[0], nil
	}
	for _, r := range rates {
		if r.Concessionaria == id {
			return r, nil
		}
	}
	return model.TariffRate{}, model.NewValidationError("concessionaria", "%q does not serve %s", id, rates[0].UF)
}
