package model

import (
	"math"

	"github.com/twpayne/go-geom"
)

// brazilBounds is the bounding box of Brazilian territory, oceanic islands included.
var brazilBounds = geom.NewBounds(geom.XY).Set(-74.0, -34.0, -28.8, 5.3)

// Location is where the PV system will be installed.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UF        UF      `json:"uf"`
	Altitude  float64 `json:"altitude"`
	Timezone  string  `json:"timezone"`
}

// Point returns the location as a WGS84 point.
func (l Location) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{l.Longitude, l.Latitude}).SetSRID(4326)
}

// Validate checks the UF and that the coordinates fall inside Brazil.
func (l Location) Validate() error {
	if !l.UF.Valid() {
		return NewValidationError("location.uf", "unknown UF %q", l.UF)
	}
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return NewValidationError("location", "coordinates must be numbers")
	}
	if !brazilBounds.OverlapsPoint(geom.XY, l.Point().Coords()) {
		return NewValidationError("location", "coordinates (%.4f, %.4f) are outside Brazil", l.Latitude, l.Longitude)
	}
	if math.IsNaN(l.Altitude) || math.IsInf(l.Altitude, 0) {
		return NewValidationError("location.altitude", "altitude must be a finite number")
	}
	if l.Altitude < -100 || l.Altitude > 3000 {
		return NewValidationError("location.altitude", "altitude %.0f m out of range", l.Altitude)
	}
	return nil
}

// LossBreakdown holds the eight system loss fractions, each in [0,1).
type LossBreakdown struct {
	Soiling      float64 `json:"soiling"`
	Shading      float64 `json:"shading"`
	Mismatch     float64 `json:"mismatch"`
	Wiring       float64 `json:"wiring"`
	Connections  float64 `json:"connections"`
	LID          float64 `json:"lid"`
	Nameplate    float64 `json:"nameplate"`
	Availability float64 `json:"availability"`
}

func (l LossBreakdown) fields() []struct {
	name string
	v    float64
} {
	return []struct {
		name string
		v    float64
	}{
		{"soiling", l.Soiling}, {"shading", l.Shading}, {"mismatch", l.Mismatch},
		{"wiring", l.Wiring}, {"connections", l.Connections}, {"lid", l.LID},
		{"nameplate", l.Nameplate}, {"availability", l.Availability},
	}
}

// Validate checks every loss is a fraction in [0,1).
func (l LossBreakdown) Validate() error {
	for _, f := range l.fields() {
		if math.IsNaN(f.v) || f.v < 0 || f.v >= 1 {
			return NewValidationError("system.losses."+f.name, "must be in [0,1), got %v", f.v)
		}
	}
	return nil
}

// Derate combines the losses multiplicatively: Π(1 - loss_i).
func (l LossBreakdown) Derate() float64 {
	d := 1.0
	for _, f := range l.fields() {
		d *= 1 - f.v
	}
	return d
}

// SystemSpec describes the proposed PV array.
type SystemSpec struct {
	InverterID       string        `json:"inverter_id"`
	PanelID          string        `json:"panel_id"`
	ModulesPerString int           `json:"modules_per_string"`
	Strings          int           `json:"strings"`
	SurfaceTilt      float64       `json:"surface_tilt"`
	SurfaceAzimuth   float64       `json:"surface_azimuth"`
	Losses           LossBreakdown `json:"losses"`
}

// Validate checks the array geometry and losses. Equipment IDs are resolved
// against the catalog by the estimator.
func (s SystemSpec) Validate() error {
	if s.InverterID == "" {
		return NewValidationError("system.inverter_id", "is required")
	}
	if s.PanelID == "" {
		return NewValidationError("system.panel_id", "is required")
	}
	if s.ModulesPerString <= 0 {
		return NewValidationError("system.modules_per_string", "must be positive")
	}
	if s.Strings <= 0 {
		return NewValidationError("system.strings", "must be positive")
	}
	if s.SurfaceTilt < 0 || s.SurfaceTilt > 90 {
		return NewValidationError("system.surface_tilt", "must be in [0,90] degrees")
	}
	if s.SurfaceAzimuth < 0 || s.SurfaceAzimuth >= 360 {
		return NewValidationError("system.surface_azimuth", "must be in [0,360) degrees")
	}
	return s.Losses.Validate()
}

// Modules returns the total module count.
func (s SystemSpec) Modules() int { return s.ModulesPerString * s.Strings }

// SizeKWp returns modules × rated watts / 1000.
func (s SystemSpec) SizeKWp(moduleRatedWatts float64) float64 {
	return float64(s.Modules()) * moduleRatedWatts / 1000
}
