package model

import (
	"sort"
	"strings"
)

// UF is a Brazilian federative unit (state) code.
type UF string

var ufNames = map[UF]string{
	"AC": "Acre", "AL": "Alagoas", "AP": "Amapá", "AM": "Amazonas", "BA": "Bahia",
	"CE": "Ceará", "DF": "Distrito Federal", "ES": "Espírito Santo", "GO": "Goiás",
	"MA": "Maranhão", "MT": "Mato Grosso", "MS": "Mato Grosso do Sul", "MG": "Minas Gerais",
	"PA": "Pará", "PB": "Paraíba", "PR": "Paraná", "PE": "Pernambuco", "PI": "Piauí",
	"RJ": "Rio de Janeiro", "RN": "Rio Grande do Norte", "RS": "Rio Grande do Sul",
	"RO": "Rondônia", "RR": "Roraima", "SC": "Santa Catarina", "SP": "São Paulo",
	"SE": "Sergipe", "TO": "Tocantins",
}

// ParseUF normalizes s and reports whether it names one of the 27 UFs.
func ParseUF(s string) (UF, bool) {
	u := UF(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := ufNames[u]
	return u, ok
}

// Valid reports whether u is one of the 27 UFs.
func (u UF) Valid() bool {
	_, ok := ufNames[u]
	return ok
}

// Name returns the state's full name.
func (u UF) Name() string { return ufNames[u] }

// AllUFs returns the 27 UF codes in alphabetical order.
func AllUFs() []UF {
	out := make([]UF, 0, len(ufNames))
	for u := range ufNames {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Grupo is the ANEEL tariff group (voltage tier).
type Grupo string

// Tariff groups.
const (
	GrupoB1  Grupo = "B1"
	GrupoB2  Grupo = "B2"
	GrupoB3  Grupo = "B3"
	GrupoB4  Grupo = "B4"
	GrupoA1  Grupo = "A1"
	GrupoA2  Grupo = "A2"
	GrupoA3  Grupo = "A3"
	GrupoA3a Grupo = "A3a"
	GrupoA4  Grupo = "A4"
	GrupoAS  Grupo = "AS"
)

var grupos = map[Grupo]bool{
	GrupoB1: true, GrupoB2: true, GrupoB3: true, GrupoB4: true,
	GrupoA1: true, GrupoA2: true, GrupoA3: true, GrupoA3a: true, GrupoA4: true, GrupoAS: true,
}

// Valid reports whether g is a known tariff group.
func (g Grupo) Valid() bool { return grupos[g] }

// IsGroupA reports whether g is a medium/high voltage group.
func (g Grupo) IsGroupA() bool { return g.Valid() && strings.HasPrefix(string(g), "A") }

// DefaultClasse returns the consumer class implied by the group when the caller omits one.
func (g Grupo) DefaultClasse() Classe {
	switch g {
	case GrupoB1:
		return ClasseResidencial
	case GrupoB2:
		return ClasseRural
	case GrupoB3:
		return ClasseComercial
	case GrupoB4:
		return ClasseIluminacaoPublica
	default:
		return ClasseIndustrial
	}
}

// Classe is the consumer class.
type Classe string

// Consumer classes.
const (
	ClasseResidencial       Classe = "residencial"
	ClasseComercial         Classe = "comercial"
	ClasseIndustrial        Classe = "industrial"
	ClasseRural             Classe = "rural"
	ClassePoderPublico      Classe = "poder_publico"
	ClasseIluminacaoPublica Classe = "iluminacao_publica"
	ClasseServicoPublico    Classe = "servico_publico"
)

var classes = map[Classe]bool{
	ClasseResidencial: true, ClasseComercial: true, ClasseIndustrial: true, ClasseRural: true,
	ClassePoderPublico: true, ClasseIluminacaoPublica: true, ClasseServicoPublico: true,
}

// Valid reports whether c is a known consumer class.
func (c Classe) Valid() bool { return classes[c] }

// Modalidade is the tariff billing structure.
type Modalidade string

// Tariff modalities.
const (
	ModalidadeConvencional  Modalidade = "convencional"
	ModalidadeHorariaBranca Modalidade = "horaria_branca"
	ModalidadeHorariaVerde  Modalidade = "horaria_verde"
	ModalidadeHorariaAzul   Modalidade = "horaria_azul"
)

var modalidades = map[Modalidade]bool{
	ModalidadeConvencional: true, ModalidadeHorariaBranca: true,
	ModalidadeHorariaVerde: true, ModalidadeHorariaAzul: true,
}

// Valid reports whether m is a known modality.
func (m Modalidade) Valid() bool { return modalidades[m] }

// Bandeira is the tariff flag in force.
type Bandeira string

// Tariff flags.
const (
	BandeiraVerde     Bandeira = "verde"
	BandeiraAmarela   Bandeira = "amarela"
	BandeiraVermelha1 Bandeira = "vermelha_1"
	BandeiraVermelha2 Bandeira = "vermelha_2"
)

var bandeiras = map[Bandeira]bool{
	BandeiraVerde: true, BandeiraAmarela: true, BandeiraVermelha1: true, BandeiraVermelha2: true,
}

// Valid reports whether b is a known tariff flag.
func (b Bandeira) Valid() bool { return bandeiras[b] }

// AmortizationSystem selects the loan amortization algorithm.
type AmortizationSystem string

// Amortization systems.
const (
	SystemPRICE AmortizationSystem = "PRICE"
	SystemSAC   AmortizationSystem = "SAC"
)

// Valid reports whether s is PRICE or SAC.
func (s AmortizationSystem) Valid() bool { return s == SystemPRICE || s == SystemSAC }

// SpreadBasis says whether a spread is quoted per year or per month.
type SpreadBasis string

// Spread bases.
const (
	SpreadAnnual  SpreadBasis = "annual"
	SpreadMonthly SpreadBasis = "monthly"
)

// Valid reports whether b is a known basis. The empty basis means annual.
func (b SpreadBasis) Valid() bool { return b == "" || b == SpreadAnnual || b == SpreadMonthly }

// InstallmentStatus is the billing status of a schedule entry.
type InstallmentStatus string

// Installment statuses. The engine only ever emits pending.
const (
	InstallmentPending   InstallmentStatus = "pending"
	InstallmentPaid      InstallmentStatus = "paid"
	InstallmentOverdue   InstallmentStatus = "overdue"
	InstallmentCancelled InstallmentStatus = "cancelled"
)

// ProposalStatus is the lifecycle state of a financing proposal.
type ProposalStatus string

// Proposal statuses.
const (
	ProposalPending    ProposalStatus = "pending"
	ProposalApproved   ProposalStatus = "approved"
	ProposalContracted ProposalStatus = "contracted"
	ProposalCancelled  ProposalStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalContracted || s == ProposalCancelled
}
