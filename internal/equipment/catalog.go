// Package equipment holds the PV module and inverter datasheets the estimator sizes against.
package equipment

import (
	"sort"

	"github.com/sells-group/solar-viability/internal/model"
)

// Panel is a PV module datasheet at STC.
type Panel struct {
	ID           string  `json:"id"`
	Manufacturer string  `json:"manufacturer"`
	Model        string  `json:"model"`
	RatedWatts   float64 `json:"rated_watts"`
	Voc          float64 `json:"voc"`
	Vmp          float64 `json:"vmp"`
	Isc          float64 `json:"isc"`
	Imp          float64 `json:"imp"`
	// TempCoeffVoc is the open-circuit voltage coefficient in %/°C (negative).
	TempCoeffVoc float64 `json:"temp_coeff_voc"`
}

// Inverter is a grid-tie inverter datasheet.
type Inverter struct {
	ID              string  `json:"id"`
	Manufacturer    string  `json:"manufacturer"`
	Model           string  `json:"model"`
	RatedACWatts    float64 `json:"rated_ac_watts"`
	MaxInputVoltage float64 `json:"max_input_voltage"`
	MPPTMinVoltage  float64 `json:"mppt_min_voltage"`
	MPPTMaxVoltage  float64 `json:"mppt_max_voltage"`
	MPPTCount       int     `json:"mppt_count"`
	StringsPerMPPT  int     `json:"strings_per_mppt"`
	MaxInputCurrent float64 `json:"max_input_current"`
}

// Catalog resolves equipment by ID.
type Catalog struct {
	panels    map[string]Panel
	inverters map[string]Inverter
}

// NewCatalog builds a catalog from the given datasheets.
func NewCatalog(panels []Panel, inverters []Inverter) *Catalog {
	c := &Catalog{
		panels:    make(map[string]Panel, len(panels)),
		inverters: make(map[string]Inverter, len(inverters)),
	}
	for _, p := range panels {
		c.panels[p.ID] = p
	}
	for _, i := range inverters {
		c.inverters[i.ID] = i
	}
	return c
}

// Default returns the built-in catalog of equipment common in Brazilian residential installs.
func Default() *Catalog {
	return NewCatalog(defaultPanels, defaultInverters)
}

// Panel looks up a module; unknown IDs are a validation error.
func (c *Catalog) Panel(id string) (Panel, error) {
	p, ok := c.panels[id]
	if !ok {
		return Panel{}, model.NewValidationError("system.panel_id", "unknown panel %q", id)
	}
	return p, nil
}

// Inverter looks up an inverter; unknown IDs are a validation error.
func (c *Catalog) Inverter(id string) (Inverter, error) {
	i, ok := c.inverters[id]
	if !ok {
		return Inverter{}, model.NewValidationError("system.inverter_id", "unknown inverter %q", id)
	}
	return i, nil
}

// PanelIDs returns the known module IDs, sorted.
func (c *Catalog) PanelIDs() []string {
	ids := make([]string, 0, len(c.panels))
	for id := range c.panels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// InverterIDs returns the known inverter IDs, sorted.
func (c *Catalog) InverterIDs() []string {
	ids := make([]string, 0, len(c.inverters))
	for id := range c.inverters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var defaultPanels = []Panel{
	{ID: "jinko-tiger-neo-585", Manufacturer: "Jinko Solar", Model: "Tiger Neo JKM585N-72HL4", RatedWatts: 585, Voc: 52.7, Vmp: 44.0, Isc: 14.03, Imp: 13.3, TempCoeffVoc: -0.25},
	{ID: "canadian-hiku7-665", Manufacturer: "Canadian Solar", Model: "HiKu7 CS7N-665MS", RatedWatts: 665, Voc: 45.6, Vmp: 38.5, Isc: 18.51, Imp: 17.28, TempCoeffVoc: -0.26},
	{ID: "trina-vertex-s-440", Manufacturer: "Trina Solar", Model: "Vertex S TSM-440NEG9R.28", RatedWatts: 440, Voc: 52.3, Vmp: 43.6, Isc: 10.62, Imp: 10.09, TempCoeffVoc: -0.24},
	{ID: "risen-titan-550", Manufacturer: "Risen Energy", Model: "Titan RSM110-8-550M", RatedWatts: 550, Voc: 38.2, Vmp: 31.8, Isc: 18.27, Imp: 17.3, TempCoeffVoc: -0.27},
}

var defaultInverters = []Inverter{
	{ID: "growatt-min-6000tl-x", Manufacturer: "Growatt", Model: "MIN 6000TL-X", RatedACWatts: 6000, MaxInputVoltage: 600, MPPTMinVoltage: 80, MPPTMaxVoltage: 550, MPPTCount: 2, StringsPerMPPT: 1, MaxInputCurrent: 16},
	{ID: "fronius-primo-8.2", Manufacturer: "Fronius", Model: "Primo 8.2-1", RatedACWatts: 8200, MaxInputVoltage: 1000, MPPTMinVoltage: 270, MPPTMaxVoltage: 800, MPPTCount: 2, StringsPerMPPT: 1, MaxInputCurrent: 18},
	{ID: "sungrow-sg5.0rs", Manufacturer: "Sungrow", Model: "SG5.0RS", RatedACWatts: 5000, MaxInputVoltage: 600, MPPTMinVoltage: 40, MPPTMaxVoltage: 560, MPPTCount: 2, StringsPerMPPT: 1, MaxInputCurrent: 16},
}
