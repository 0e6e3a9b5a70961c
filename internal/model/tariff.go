package model

import "github.com/shopspring/decimal"

// TariffRate is the residential B1 energy rate of one distribution utility,
// before class and modality factors. It is the unit the tariff sources store.
type TariffRate struct {
	UF             UF              `json:"uf"`
	Concessionaria string          `json:"concessionaria"`
	Name           string          `json:"name"`
	BaseRate       decimal.Decimal `json:"base_rate"`
	ReferenceDate  string          `json:"reference_date"`
	// IsDefault marks the utility used when a query names none.
	IsDefault bool `json:"is_default"`
}
