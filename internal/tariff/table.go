package tariff

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/solar-viability/internal/model"
)

type entry struct {
	uf    model.UF
	id    string
	name  string
	rate  string
	date  string
	isDef bool
}

// builtin holds the B1 residential convencional energy tariff (TE+TUSD, before
// taxes) of the main utility of each UF, plus a few large secondary utilities.
var builtin = []entry{
	{"AC", "energisa-ac", "Energisa Acre", "0.83", "2025-12-13", true},
	{"AL", "equatorial-al", "Equatorial Alagoas", "0.80", "2026-05-03", true},
	{"AM", "amazonas-energia", "Amazonas Energia", "0.90", "2025-11-01", true},
	{"AP", "cea-equatorial", "CEA Equatorial", "0.72", "2025-12-13", true},
	{"BA", "coelba", "Neoenergia Coelba", "0.83", "2026-04-22", true},
	{"CE", "enel-ce", "Enel Distribuição Ceará", "0.79", "2026-04-22", true},
	{"DF", "neoenergia-df", "Neoenergia Brasília", "0.75", "2025-11-03", true},
	{"ES", "edp-es", "EDP Espírito Santo", "0.77", "2025-08-07", true},
	{"GO", "equatorial-go", "Equatorial Goiás", "0.76", "2025-10-22", true},
	{"MA", "equatorial-ma", "Equatorial Maranhão", "0.78", "2025-08-28", true},
	{"MG", "cemig-d", "Cemig Distribuição", "0.85", "2026-05-28", true},
	{"MS", "energisa-ms", "Energisa Mato Grosso do Sul", "0.88", "2026-04-08", true},
	{"MT", "energisa-mt", "Energisa Mato Grosso", "0.89", "2026-04-08", true},
	{"PA", "equatorial-pa", "Equatorial Pará", "0.93", "2025-08-07", true},
	{"PB", "energisa-pb", "Energisa Paraíba", "0.72", "2025-08-28", true},
	{"PE", "neoenergia-pe", "Neoenergia Pernambuco", "0.78", "2026-04-29", true},
	{"PI", "equatorial-pi", "Equatorial Piauí", "0.86", "2025-12-02", true},
	{"PR", "copel-dis", "Copel Distribuição", "0.71", "2026-06-24", true},
	{"RJ", "light", "Light", "0.92", "2026-03-15", true},
	{"RJ", "enel-rj", "Enel Distribuição Rio", "0.89", "2026-03-15", false},
	{"RN", "cosern", "Neoenergia Cosern", "0.74", "2026-04-22", true},
	{"RO", "energisa-ro", "Energisa Rondônia", "0.80", "2025-12-13", true},
	{"RR", "roraima-energia", "Roraima Energia", "0.70", "2025-11-01", true},
	{"RS", "rge-sul", "RGE Sul", "0.79", "2026-06-19", true},
	{"RS", "ceee-equatorial", "CEEE Equatorial", "0.81", "2025-11-22", false},
	{"SC", "celesc-dis", "Celesc Distribuição", "0.68", "2025-08-22", true},
	{"SE", "energisa-se", "Energisa Sergipe", "0.72", "2026-04-22", true},
	{"SP", "enel-sp", "Enel Distribuição São Paulo", "0.74", "2026-07-04", true},
	{"SP", "cpfl-paulista", "CPFL Paulista", "0.78", "2026-04-08", false},
	{"TO", "energisa-to", "Energisa Tocantins", "0.85", "2026-07-04", true},
}

// BuiltinRates returns the built-in table.
func BuiltinRates() []model.TariffRate {
	out := make([]model.TariffRate, 0, len(builtin))
	for _, e := range builtin {
		out = append(out, model.TariffRate{
			UF:             e.uf,
			Concessionaria: e.id,
			Name:           e.name,
			BaseRate:       decimal.RequireFromString(e.rate),
			ReferenceDate:  e.date,
			IsDefault:      e.isDef,
		})
	}
	return out
}

// TableFile is the YAML layout of a tariff override file.
type TableFile struct {
	Rates []TableRate `yaml:"rates"`
}

// TableRate is one utility row of a TableFile.
type TableRate struct {
	UF             string `yaml:"uf"`
	Concessionaria string `yaml:"concessionaria"`
	Name           string `yaml:"name"`
	BaseRate       string `yaml:"base_rate"`
	ReferenceDate  string `yaml:"reference_date"`
	Default        bool   `yaml:"default"`
}

// LoadTable reads a YAML tariff file.
func LoadTable(path string) ([]model.TariffRate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tariff: read table %s", path)
	}

	var f TableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "tariff: parse table %s", path)
	}

	out := make([]model.TariffRate, 0, len(f.Rates))
	for i, r := range f.Rates {
		uf, ok := model.ParseUF(r.UF)
		if !ok {
			return nil, eris.Errorf("tariff: table %s row %d: unknown uf %q", path, i+1, r.UF)
		}
		if r.Concessionaria == "" {
			return nil, eris.Errorf("tariff: table %s row %d: concessionaria is required", path, i+1)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(r.BaseRate))
		if err != nil || !rate.IsPositive() {
			return nil, eris.Errorf("tariff: table %s row %d: base_rate %q must be a positive number", path, i+1, r.BaseRate)
		}
		out = append(out, model.TariffRate{
			UF:             uf,
			Concessionaria: strings.ToLower(r.Concessionaria),
			Name:           r.Name,
			BaseRate:       rate,
			ReferenceDate:  r.ReferenceDate,
			IsDefault:      r.Default,
		})
	}
	return out, nil
}

// Source supplies utility base rates for a UF.
type Source interface {
	Name() string
	Rates(ctx context.Context, uf model.UF) ([]model.TariffRate, error)
}

// StaticSource serves an in-memory table.
type StaticSource struct {
	byUF map[model.UF][]model.TariffRate
}

// NewStaticSource builds a source from the built-in table with overrides
// applied. An override replaces the row with the same UF and utility; a
// default override demotes the previous default of that UF.
func NewStaticSource(overrides ...model.TariffRate) *StaticSource {
	s := &StaticSource{byUF: make(map[model.UF][]model.TariffRate)}
	for _, r := range BuiltinRates() {
		s.byUF[r.UF] = append(s.byUF[r.UF], r)
	}
	for _, o := range overrides {
		rows := s.byUF[o.UF]
		if o.IsDefault {
			for i := range rows {
				rows[i].IsDefault = false
			}
		}
		replaced := false
		for i := range rows {
			if rows[i].Concessionaria == o.Concessionaria {
				rows[i] = o
				replaced = true
			}
		}
		if !replaced {
			rows = append(rows, o)
		}
		s.byUF[o.UF] = rows
	}
	for uf, rows := range s.byUF {
		sortRates(rows)
		s.byUF[uf] = rows
	}
	return s
}

// Name implements Source.
func (s *StaticSource) Name() string { return "static" }

// Rates implements Source.
func (s *StaticSource) Rates(_ context.Context, uf model.UF) ([]model.TariffRate, error) {
	return s.byUF[uf], nil
}

// All returns every row, ordered by UF then default first.
func (s *StaticSource) All() []model.TariffRate {
	var out []model.TariffRate
	for _, uf := range model.AllUFs() {
		out = append(out, s.byUF[uf]...)
	}
	return out
}

// RateStore is the persistence the store-backed source reads from.
type RateStore interface {
	ListTariffRates(ctx context.Context, uf model.UF) ([]model.TariffRate, error)
}

// StoreSource reads the tariff_rates table.
type StoreSource struct {
	store RateStore
}

// NewStoreSource wraps a store.
func NewStoreSource(s RateStore) *StoreSource {
	return &StoreSource{store: s}
}

// Name implements Source.
func (s *StoreSource) Name() string { return "store" }

// Rates implements Source.
func (s *StoreSource) Rates(ctx context.Context, uf model.UF) ([]model.TariffRate, error) {
	rates, err := s.store.ListTariffRates(ctx, uf)
	if err != nil {
		return nil, eris.Wrapf(err, "tariff: load rates for %s", uf)
	}
	return rates, nil
}

func sortRates(rows []model.TariffRate) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsDefault != rows[j].IsDefault {
			return rows[i].IsDefault
		}
		return rows[i].Concessionaria < rows[j].Concessionaria
	})
}
