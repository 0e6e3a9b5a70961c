package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Energy sources reported on an EnergyEstimate.
const (
	EnergySourceSimulation = "simulation"
	EnergySourceFallback   = "fallback"
)

// MMGD oversizing bounds, in percent of annual consumption.
const (
	OversizingMinPct         = 114.0
	OversizingMaxPct         = 160.0
	OversizingRecommendedPct = 130.0
)

// TariffStructure is a resolved regulated electricity rate.
type TariffStructure struct {
	UF                 UF              `json:"uf"`
	Grupo              Grupo           `json:"grupo"`
	Modalidade         Modalidade      `json:"modalidade"`
	Classe             Classe          `json:"classe"`
	Bandeira           Bandeira        `json:"bandeira"`
	Concessionaria     string          `json:"concessionaria"`
	ConcessionariaName string          `json:"concessionaria_nome"`
	BaseRate           decimal.Decimal `json:"base_rate"`
	BandeiraSurcharge  decimal.Decimal `json:"bandeira_surcharge"`
	Rate               decimal.Decimal `json:"rate"`
	ReferenceDate      string          `json:"reference_date"`
	Source             string          `json:"source"`
}

// ComplianceResult is the MMGD oversizing verdict.
type ComplianceResult struct {
	OversizingPct      float64 `json:"oversizing_pct"`
	Valid              bool    `json:"valid"`
	Message            string  `json:"message,omitempty"`
	EstimatedAnnualKWh float64 `json:"geracao_anual_estimada_kwh"`
	RecommendedKWp     float64 `json:"recommended_kwp"`
	RecommendedPct     float64 `json:"recommended_pct"`
	MinPct             float64 `json:"min_pct"`
	MaxPct             float64 `json:"max_pct"`
}

// MPPTValidation reports whether the string layout suits the inverter.
type MPPTValidation struct {
	Compatible      bool     `json:"compatible"`
	StringVocCold   float64  `json:"string_voc_cold"`
	StringVmp       float64  `json:"string_vmp"`
	MaxInputVoltage float64  `json:"max_input_voltage"`
	MPPTMinVoltage  float64  `json:"mppt_min_voltage"`
	MPPTMaxVoltage  float64  `json:"mppt_max_voltage"`
	Issues          []string `json:"issues,omitempty"`
}

// EnergyEstimate is the expected yield of a system at a location.
type EnergyEstimate struct {
	SystemSizeKWp       float64        `json:"system_size_kwp"`
	AnnualGenerationKWh float64        `json:"annual_generation_kwh"`
	MonthlyGeneration   [12]float64    `json:"monthly_generation"`
	SpecificYield       float64        `json:"specific_yield_kwh_kwp"`
	Derate              float64        `json:"derate"`
	Source              string         `json:"source"`
	Degraded            *Degraded      `json:"degraded,omitempty"`
	MPPT                MPPTValidation `json:"-"`
}

// RateValue is one reference index reading.
type RateValue struct {
	Series    int     `json:"series"`
	Value     float64 `json:"value"`
	Date      string  `json:"date,omitempty"`
	Validated bool    `json:"validated"`
}

// ReferenceRates are the central-bank indices used to price financing.
type ReferenceRates struct {
	Selic     RateValue  `json:"selic"`
	CDI       RateValue  `json:"cdi"`
	IPCA      RateValue  `json:"ipca"`
	Validated bool       `json:"validated"`
	Degraded  []Degraded `json:"degraded,omitempty"`
}

// Savings are the tariff-aware financial KPIs of a system.
type Savings struct {
	MonthlySavings         decimal.Decimal     `json:"monthly_savings"`
	MonthlyBreakdown       [12]decimal.Decimal `json:"monthly_breakdown"`
	AnnualSavings          decimal.Decimal     `json:"annual_savings"`
	PaybackYears           float64             `json:"payback_years"`
	DiscountedPaybackYears *float64            `json:"discounted_payback_years"`
	ROIPct                 float64             `json:"roi_pct"`
	IRRPct                 *float64            `json:"irr_pct"`
	NPV                    decimal.Decimal     `json:"npv"`
	ProjectionYears        int                 `json:"projection_years"`
	ProjectedSavings       decimal.Decimal     `json:"projected_savings"`
	BenchmarkPct           float64             `json:"benchmark_selic_pct"`
	Viable                 bool                `json:"viable"`
}

// FinancialReport nests savings and the financing simulation as the HTTP contract expects.
type FinancialReport struct {
	Savings
	FinancingSimulation FinancingSimulation `json:"financing_simulation"`
}

// ViabilityReport is the consolidated result of one evaluation. It is built
// per request and never persisted by the engine.
type ViabilityReport struct {
	Success         bool             `json:"success"`
	ReportID        string           `json:"report_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Energy          EnergyEstimate   `json:"energy"`
	MPPTValidation  MPPTValidation   `json:"mppt_validation"`
	TariffInfo      TariffStructure  `json:"tariff_info"`
	Compliance      ComplianceResult `json:"compliance"`
	Financial       FinancialReport  `json:"financial"`
	BacenValidation ReferenceRates   `json:"bacen_validation"`
	Degraded        []Degraded       `json:"degraded,omitempty"`
}

// ViabilityRequest is the canonical engine input.
type ViabilityRequest struct {
	Location    Location           `json:"location"`
	System      SystemSpec         `json:"system"`
	Financial   FinancialInputs    `json:"financial"`
	Consumption ConsumptionProfile `json:"consumption"`
}

// Validate checks every section; the first problem wins.
func (r ViabilityRequest) Validate() error {
	if err := r.Location.Validate(); err != nil {
		return err
	}
	if err := r.System.Validate(); err != nil {
		return err
	}
	if err := r.Consumption.Validate(); err != nil {
		return err
	}
	return r.Financial.Validate()
}
