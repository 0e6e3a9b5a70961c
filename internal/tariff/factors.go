package tariff

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/solar-viability/internal/model"
)

// rateDecimals is the precision of published ANEEL energy tariffs (R$/kWh).
const rateDecimals = 5

var bandeiraSurcharge = map[model.Bandeira]decimal.Decimal{
	model.BandeiraVerde:     decimal.Zero,
	model.BandeiraAmarela:   decimal.RequireFromString("0.02"),
	model.BandeiraVermelha1: decimal.RequireFromString("0.04"),
	model.BandeiraVermelha2: decimal.RequireFromString("0.06"),
}

// BandeiraSurcharge returns the flag surcharge in R$/kWh, additive to the energy rate.
func BandeiraSurcharge(b model.Bandeira) (decimal.Decimal, bool) {
	s, ok := bandeiraSurcharge[b]
	return s, ok
}

// Base rates in the table are the residential B1 convencional tariff of the
// utility. The factors below derive the other classifications from it.
var grupoFactor = map[model.Grupo]decimal.Decimal{
	model.GrupoB1:  decimal.RequireFromString("1.00"),
	model.GrupoB2:  decimal.RequireFromString("0.70"),
	model.GrupoB3:  decimal.RequireFromString("1.00"),
	model.GrupoB4:  decimal.RequireFromString("0.55"),
	model.GrupoA4:  decimal.RequireFromString("0.62"),
	model.GrupoA3a: decimal.RequireFromString("0.60"),
	model.GrupoA3:  decimal.RequireFromString("0.56"),
	model.GrupoA2:  decimal.RequireFromString("0.53"),
	model.GrupoA1:  decimal.RequireFromString("0.50"),
	model.GrupoAS:  decimal.RequireFromString("0.65"),
}

// Subsidized classes (Lei 10.438 discounts).
var classeFactor = map[model.Classe]decimal.Decimal{
	model.ClasseRural:          decimal.RequireFromString("0.90"),
	model.ClasseServicoPublico: decimal.RequireFromString("0.85"),
}

var modalidadeFactor = map[model.Modalidade]decimal.Decimal{
	model.ModalidadeConvencional:  decimal.RequireFromString("1.00"),
	model.ModalidadeHorariaBranca: decimal.RequireFromString("0.97"),
	model.ModalidadeHorariaVerde:  decimal.RequireFromString("1.00"),
	model.ModalidadeHorariaAzul:   decimal.RequireFromString("0.95"),
}

// EnergyRate applies the classification factors to a B1 base rate.
func EnergyRate(base decimal.Decimal, g model.Grupo, c model.Classe, m model.Modalidade) decimal.Decimal {
	r := base.Mul(grupoFactor[g]).Mul(modalidadeFactor[m])
	if f, ok := classeFactor[c]; ok {
		r = r.Mul(f)
	}
	return r.Round(rateDecimals)
}

// checkCompatibility enforces the ANEEL grupo/modalidade/classe combinations.
func checkCompatibility(g model.Grupo, c model.Classe, m model.Modalidade) error {
	if g.IsGroupA() {
		switch m {
		case model.ModalidadeHorariaVerde, model.ModalidadeHorariaAzul:
		case model.ModalidadeConvencional:
			if g != model.GrupoA4 && g != model.GrupoAS {
				return model.NewValidationError("modalidade", "convencional is only offered to A4 and AS, not %s", g)
			}
		default:
			return model.NewValidationError("modalidade", "%s is not offered to group A", m)
		}
		if c == model.ClasseResidencial || c == model.ClasseIluminacaoPublica {
			return model.NewValidationError("classe", "%s is not billed in group A", c)
		}
		return nil
	}

	if m != model.ModalidadeConvencional && m != model.ModalidadeHorariaBranca {
		return model.NewValidationError("modalidade", "%s is not offered to group B", m)
	}
	switch g {
	case model.GrupoB1:
		if c != model.ClasseResidencial {
			return model.NewValidationError("classe", "B1 is residential, got %s", c)
		}
	case model.GrupoB2:
		if c != model.ClasseRural {
			return model.NewValidationError("classe", "B2 is rural, got %s", c)
		}
	case model.GrupoB3:
		switch c {
		case model.ClasseResidencial, model.ClasseRural, model.ClasseIluminacaoPublica:
			return model.NewValidationError("classe", "%s belongs to its own subgroup, not B3", c)
		}
	case model.GrupoB4:
		if c != model.ClasseIluminacaoPublica {
			return model.NewValidationError("classe", "B4 is public lighting, got %s", c)
		}
		if m == model.ModalidadeHorariaBranca {
			return model.NewValidationError("modalidade", "horaria_branca is not offered to B4")
		}
	}
	return nil
}
