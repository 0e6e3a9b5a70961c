package equipment

import (
	"fmt"
	"math"

	"github.com/sells-group/solar-viability/internal/model"
)

// stcTempC is the cell temperature at standard test conditions.
const stcTempC = 25.0

// DefaultMinAmbientTempC is the design minimum used for cold Voc when none is configured.
const DefaultMinAmbientTempC = 0.0

// CheckMPPT validates a string layout against the inverter input window.
// An incompatible layout is reported, not returned as an error.
func CheckMPPT(p Panel, inv Inverter, modulesPerString, strings int, minAmbientC float64) model.MPPTValidation {
	n := float64(modulesPerString)
	coldFactor := 1 + math.Abs(p.TempCoeffVoc)/100*(stcTempC-minAmbientC)
	v := model.MPPTValidation{
		StringVocCold:   round2(p.Voc * n * coldFactor),
		StringVmp:       round2(p.Vmp * n),
		MaxInputVoltage: inv.MaxInputVoltage,
		MPPTMinVoltage:  inv.MPPTMinVoltage,
		MPPTMaxVoltage:  inv.MPPTMaxVoltage,
	}

	if v.StringVocCold > inv.MaxInputVoltage {
		v.Issues = append(v.Issues, fmt.Sprintf("string Voc at %.0f°C is %.1f V, above the inverter maximum of %.0f V", minAmbientC, v.StringVocCold, inv.MaxInputVoltage))
	}
	if v.StringVmp < inv.MPPTMinVoltage {
		v.Issues = append(v.Issues, fmt.Sprintf("string Vmp %.1f V is below the MPPT window (%.0f-%.0f V)", v.StringVmp, inv.MPPTMinVoltage, inv.MPPTMaxVoltage))
	}
	if v.StringVmp > inv.MPPTMaxVoltage {
		v.Issues = append(v.Issues, fmt.Sprintf("string Vmp %.1f V is above the MPPT window (%.0f-%.0f V)", v.StringVmp, inv.MPPTMinVoltage, inv.MPPTMaxVoltage))
	}
	if maxStrings := inv.MPPTCount * inv.StringsPerMPPT; strings > maxStrings {
		v.Issues = append(v.Issues, fmt.Sprintf("%d strings exceed the %d inputs of the inverter", strings, maxStrings))
	}
	if inv.MaxInputCurrent > 0 && p.Isc > inv.MaxInputCurrent {
		v.Issues = append(v.Issues, fmt.Sprintf("module Isc %.2f A exceeds the MPPT input current of %.1f A", p.Isc, inv.MaxInputCurrent))
	}

	v.Compatible = len(v.Issues) == 0
	return v
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
