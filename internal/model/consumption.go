package model

import "math"

// ConsumptionProfile is the customer's demand and tariff classification.
type ConsumptionProfile struct {
	// MonthlyKWh is the average monthly consumption.
	MonthlyKWh float64 `json:"monthly_kwh"`
	// Profile optionally gives one value per calendar month; when set it
	// takes precedence over MonthlyKWh.
	Profile        []float64  `json:"profile,omitempty"`
	Grupo          Grupo      `json:"grupo"`
	Classe         Classe     `json:"classe,omitempty"`
	Modalidade     Modalidade `json:"modalidade,omitempty"`
	Bandeira       Bandeira   `json:"bandeira,omitempty"`
	Concessionaria string     `json:"concessionaria,omitempty"`
}

// Validate checks consumption is positive and the classification enums are known.
func (c ConsumptionProfile) Validate() error {
	if len(c.Profile) > 0 {
		if len(c.Profile) != 12 {
			return NewValidationError("consumption.profile", "must have 12 months, got %d", len(c.Profile))
		}
		for i, v := range c.Profile {
			if math.IsNaN(v) || v < 0 {
				return NewValidationError("consumption.profile", "month %d must be non-negative", i+1)
			}
		}
		if c.Annual() <= 0 {
			return NewValidationError("consumption.profile", "annual consumption must be positive")
		}
	} else if math.IsNaN(c.MonthlyKWh) || c.MonthlyKWh <= 0 {
		return NewValidationError("consumption.monthly_kwh", "must be positive")
	}
	if !c.Grupo.Valid() {
		return NewValidationError("consumption.grupo", "unknown grupo %q", c.Grupo)
	}
	if c.Classe != "" && !c.Classe.Valid() {
		return NewValidationError("consumption.classe", "unknown classe %q", c.Classe)
	}
	if c.Modalidade != "" && !c.Modalidade.Valid() {
		return NewValidationError("consumption.modalidade", "unknown modalidade %q", c.Modalidade)
	}
	if c.Bandeira != "" && !c.Bandeira.Valid() {
		return NewValidationError("consumption.bandeira", "unknown bandeira %q", c.Bandeira)
	}
	return nil
}

// Monthly returns the 12 monthly consumption values.
func (c ConsumptionProfile) Monthly() [12]float64 {
	var out [12]float64
	if len(c.Profile) == 12 {
		copy(out[:], c.Profile)
		return out
	}
	for i := range out {
		out[i] = c.MonthlyKWh
	}
	return out
}

// Annual returns total yearly consumption.
func (c ConsumptionProfile) Annual() float64 {
	var sum float64
	for _, v := range c.Monthly() {
		sum += v
	}
	return sum
}

// EffectiveClasse returns the declared class or the group's default.
func (c ConsumptionProfile) EffectiveClasse() Classe {
	if c.Classe != "" {
		return c.Classe
	}
	return c.Grupo.DefaultClasse()
}
