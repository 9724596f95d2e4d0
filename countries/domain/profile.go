package domain

import "encoding/json"

// CapitalEntry é um par país/capital de /african-capitals.
type CapitalEntry struct {
	Country string `json:"country"`
	Capital string `json:"capital"`
}

// RegionCapitals agrupa capitais de uma sub-região canônica.
type RegionCapitals struct {
	Region    string         `json:"region"`
	Countries []CapitalEntry `json:"countries"`
}

// CountryInfo é o bloco "country" dos perfis.
type CountryInfo struct {
	Name    string  `json:"name"`
	Code    string  `json:"code"`
	Capital *string `json:"capital"`
	Region  string  `json:"region"`
}

type Economy struct {
	GDP        *float64 `json:"gdp"`
	GDPGrowth  *float64 `json:"gdp_growth"`
	Currency   *string  `json:"currency"`
	KeySectors []Sector `json:"key_sectors"`
}

type Demographics struct {
	Population *float64 `json:"population"`
	GrowthRate *float64 `json:"growth_rate"`
	MedianAge  float64  `json:"median_age"`
}

// EconomicProfile é a resposta de /economic-data/{code}.
type EconomicProfile struct {
	Country      CountryInfo  `json:"country"`
	Economy      Economy      `json:"economy"`
	Demographics Demographics `json:"demographics"`
}

// Geography degrada para objeto vazio quando a fronteira não é encontrada.
type Geography struct {
	Boundaries         json.RawMessage `json:"boundaries"`
	CapitalCoordinates []float64       `json:"capital_coordinates"`
}

// CountryProfile é a resposta de /country-profile/{code}.
type CountryProfile struct {
	EconomicProfile
	Geography Geography `json:"geography"`
}

// EconomicSummary é um item de /economic-data.
type EconomicSummary struct {
	Name       string   `json:"name"`
	Code       string   `json:"code"`
	Capital    *string  `json:"capital"`
	Population *float64 `json:"population"`
	GDP        *float64 `json:"gdp"`
}

// UpstreamStatus é o resultado de uma sonda de saúde contra um upstream.
type UpstreamStatus struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
}

// ServiceStatus é a resposta de /status.
type ServiceStatus struct {
	Version        string           `json:"version"`
	UptimeSeconds  int              `json:"uptime_seconds"`
	CacheEnabled   bool             `json:"cache_enabled"`
	CacheTTL       int              `json:"cache_ttl_seconds"`
	BoundarySource BoundarySource   `json:"boundary_source"`
	Upstreams      []UpstreamStatus `json:"upstreams"`
}

// StringPtr retorna nil para string vazia.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
