package domain

import (
	"encoding/json"
	"strings"
)

// Country é um registro do diretório de países (REST Countries), imutável depois de buscado.
// A identidade é o código alpha-2.
type Country struct {
	Name       string
	Alpha2     string
	Alpha3     string
	Capitals   []string
	Region     string
	Subregion  string
	Currencies []string

	// CapitalLatLng vem de capitalInfo.latlng quando o upstream informa.
	CapitalLatLng []float64
}

// Capital junta as capitais com ", " (países como a África do Sul têm mais de uma).
func (c Country) Capital() string {
	return strings.Join(c.Capitals, ", ")
}

// PrimaryCurrency retorna a primeira moeda ou "" quando não há nenhuma.
func (c Country) PrimaryCurrency() string {
	if len(c.Currencies) == 0 {
		return ""
	}
	return c.Currencies[0]
}

// IndicatorValue é o valor mais recente não vazio de um indicador para um país.
type IndicatorValue struct {
	Country   string   `json:"country"`
	Indicator string   `json:"indicator"`
	Value     *float64 `json:"value"`
	Date      string   `json:"date,omitempty"`
}

// Sector é uma entrada de setor-chave da economia.
// Contribution é percentual do PIB; Value é derivado do PIB, em bilhões.
type Sector struct {
	Name         string   `json:"name"`
	Contribution float64  `json:"contribution"`
	Value        *float64 `json:"value"`
}

// Feature é uma feature GeoJSON. Geometry fica crua: o agregador só repassa.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// Property lê uma propriedade textual da feature.
func (f Feature) Property(key string) string {
	if f.Properties == nil {
		return ""
	}
	v, _ := f.Properties[key].(string)
	return v
}

// FeatureCollection é a coleção GeoJSON servida em /map-data.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// EmptyFeatureCollection é o último nível do fallback de fronteiras.
func EmptyFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// BoundarySource indica de onde veio o dataset de fronteiras.
type BoundarySource string

const (
	BoundaryLive          BoundarySource = "live"
	BoundaryLastKnownGood BoundarySource = "last_known_good"
	BoundaryBundled       BoundarySource = "bundled"
	BoundaryEmpty         BoundarySource = "empty"
)

// BoundarySnapshot é o dataset de fronteiras junto com o nível de onde veio.
type BoundarySnapshot struct {
	Collection FeatureCollection `json:"collection"`
	Source     BoundarySource    `json:"source"`
}
