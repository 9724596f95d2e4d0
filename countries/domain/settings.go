package domain

import "time"

// DefaultRegionOrder é a ordem canônica das sub-regiões africanas.
var DefaultRegionOrder = []string{
	"Northern Africa",
	"Western Africa",
	"Eastern Africa",
	"Southern Africa",
	"Central Africa",
}

// IndicatorTable guarda os códigos (estilo Banco Mundial) de cada indicador acompanhado.
type IndicatorTable struct {
	GDP              string `yaml:"gdp"`
	GDPGrowth        string `yaml:"gdp_growth"`
	Population       string `yaml:"population"`
	PopulationGrowth string `yaml:"population_growth"`
	Agriculture      string `yaml:"agriculture"`
	Industry         string `yaml:"industry"`
	Services         string `yaml:"services"`
}

func DefaultIndicators() IndicatorTable {
	return IndicatorTable{
		GDP:              "NY.GDP.MKTP.CD",
		GDPGrowth:        "NY.GDP.MKTP.KD.ZG",
		Population:       "SP.POP.TOTL",
		PopulationGrowth: "SP.POP.GROW",
		Agriculture:      "NV.AGR.TOTL.ZS",
		Industry:         "NV.IND.TOTL.ZS",
		Services:         "NV.SRV.TOTL.ZS",
	}
}

// Settings é a configuração injetada no serviço de agregação.
type Settings struct {
	Region        string
	RegionOrder   []string
	Indicators    IndicatorTable
	Sectors       SectorTable
	Aliases       map[string]string
	GatherLimit   int
	GatherTimeout time.Duration
	MedianAge     float64

	// usados apenas para relatório em /status
	CacheEnabled bool
	CacheTTL     time.Duration
	Version      string
}

// DefaultSettings retorna os valores padrão; campos zerados de uma Settings
// são completados por WithDefaults.
func DefaultSettings() Settings {
	return Settings{
		Region:        "africa",
		RegionOrder:   append([]string(nil), DefaultRegionOrder...),
		Indicators:    DefaultIndicators(),
		Sectors:       DefaultSectorTable(),
		Aliases:       DefaultAlpha3Aliases(),
		GatherLimit:   3,
		GatherTimeout: 5 * time.Second,
		MedianAge:     25,
		CacheEnabled:  true,
		CacheTTL:      time.Hour,
		Version:       "1.3.0",
	}
}

// WithDefaults completa campos não informados.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Region == "" {
		s.Region = d.Region
	}
	if len(s.RegionOrder) == 0 {
		s.RegionOrder = d.RegionOrder
	}
	if s.Indicators == (IndicatorTable{}) {
		s.Indicators = d.Indicators
	}
	if s.Sectors == nil {
		s.Sectors = d.Sectors
	}
	if s.Aliases == nil {
		s.Aliases = d.Aliases
	}
	if s.GatherLimit <= 0 {
		s.GatherLimit = d.GatherLimit
	}
	if s.GatherTimeout <= 0 {
		s.GatherTimeout = d.GatherTimeout
	}
	if s.MedianAge == 0 {
		s.MedianAge = d.MedianAge
	}
	if s.Version == "" {
		s.Version = d.Version
	}
	return s
}
