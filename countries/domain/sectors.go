package domain

import "strings"

// SectorShare é uma entrada da tabela estática de setores (sem valor derivado).
type SectorShare struct {
	Name         string  `yaml:"name"`
	Contribution float64 `yaml:"contribution"`
}

// DefaultSectorKey é a chave da entrada padrão da tabela.
const DefaultSectorKey = "default"

// SectorTable mapeia código alpha-2 -> setores-chave, com uma entrada padrão.
type SectorTable map[string][]SectorShare

// DefaultSectorTable retorna a tabela de protótipo usada quando o upstream
// não informa participação setorial.
func DefaultSectorTable() SectorTable {
	return SectorTable{
		"KE": {
			{Name: "Agriculture", Contribution: 34.5},
			{Name: "Tourism", Contribution: 8.8},
			{Name: "Manufacturing", Contribution: 7.7},
		},
		"NG": {
			{Name: "Oil & Gas", Contribution: 8.6},
			{Name: "Agriculture", Contribution: 26.2},
			{Name: "Telecommunications", Contribution: 11.2},
		},
		"ZA": {
			{Name: "Mining", Contribution: 8.2},
			{Name: "Finance", Contribution: 20.3},
			{Name: "Manufacturing", Contribution: 13.5},
		},
		DefaultSectorKey: {
			{Name: "Agriculture", Contribution: 25.0},
			{Name: "Services", Contribution: 45.0},
			{Name: "Industry", Contribution: 30.0},
		},
	}
}

// For é total: sempre retorna uma lista (a entrada do país, a padrão, ou vazia).
func (t SectorTable) For(code string) []SectorShare {
	if s, ok := t[strings.ToUpper(code)]; ok {
		return append([]SectorShare(nil), s...)
	}
	if s, ok := t[DefaultSectorKey]; ok {
		return append([]SectorShare(nil), s...)
	}
	return []SectorShare{}
}

// DeriveSectors calcula o valor absoluto (bilhões) de cada setor a partir do PIB.
// Sem PIB, Value fica nil.
func DeriveSectors(shares []SectorShare, gdp *float64) []Sector {
	out := make([]Sector, 0, len(shares))
	for _, s := range shares {
		sec := Sector{Name: s.Name, Contribution: s.Contribution}
		if gdp != nil {
			v := *gdp * s.Contribution / 100 / 1e9
			sec.Value = &v
		}
		out = append(out, sec)
	}
	return out
}
