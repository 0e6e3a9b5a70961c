// Package compliance checks system sizing against the MMGD oversizing bounds.
package compliance

import (
	"math"

	"github.com/sells-group/solar-viability/internal/model"
)

// ReferenceYield is the regulatory yield assumption in kWh/kWp/year.
const ReferenceYield = 1500.0

// Messages returned for out-of-bounds systems.
const (
	MsgBelowMinimum = "Oversizing mínimo: 114% (Marco Legal MMGD)"
	MsgAboveMaximum = "Oversizing máximo: 160% (limite ANEEL)"
)

// Validate classifies a system against the 114%..160% oversizing window, bounds
// inclusive. An out-of-bounds system is a result, not an error; only
// non-positive inputs fail.
func Validate(systemSizeKWp, annualConsumptionKWh float64) (model.ComplianceResult, error) {
	if math.IsNaN(systemSizeKWp) || systemSizeKWp <= 0 {
		return model.ComplianceResult{}, model.NewValidationError("system_size_kwp", "must be positive")
	}
	if math.IsNaN(annualConsumptionKWh) || annualConsumptionKWh <= 0 {
		return model.ComplianceResult{}, model.NewValidationError("annual_consumption_kwh", "must be positive")
	}

	estimated := systemSizeKWp * ReferenceYield
	// Rounded so 5.7 kWp against 7500 kWh lands on 114 and not 113.99999999999999.
	pct := math.Round(estimated/annualConsumptionKWh*100*1e6) / 1e6

	res := model.ComplianceResult{
		OversizingPct:      pct,
		EstimatedAnnualKWh: estimated,
		RecommendedKWp:     RecommendedKWp(annualConsumptionKWh),
		RecommendedPct:     model.OversizingRecommendedPct,
		MinPct:             model.OversizingMinPct,
		MaxPct:             model.OversizingMaxPct,
	}
	switch {
	case pct < model.OversizingMinPct:
		res.Message = MsgBelowMinimum
	case pct > model.OversizingMaxPct:
		res.Message = MsgAboveMaximum
	default:
		res.Valid = true
	}
	return res, nil
}

// RecommendedKWp returns the size that hits the 130% design target, rounded to watts.
func RecommendedKWp(annualConsumptionKWh float64) float64 {
	if annualConsumptionKWh <= 0 {
		return 0
	}
	kwp := annualConsumptionKWh * model.OversizingRecommendedPct / 100 / ReferenceYield
	return math.Round(kwp*1000) / 1000
}
