package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	sourceRest = "restcountries"
	sourceWB   = "worldbank"
	sourceNE   = "naturalearth"
)

type stubOptions struct {
	Delay time.Duration

	// Fail lista as fontes que respondem 503.
	Fail  map[string]bool
	Debug bool
}

// newStubHandler simula os três upstreams sob prefixos fixos:
//
//	/rest/v3.1/region/{region}
//	/wb/v2/country/{code}/indicator/{indicator}
//	/ne/countries.geojson
func newStubHandler(opts stubOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v3.1/region/{region}", stubbed(opts, sourceRest, restRegion))
	mux.HandleFunc("HEAD /rest/v3.1", stubbed(opts, sourceRest, ok))
	mux.HandleFunc("GET /wb/v2/country/{code}/indicator/{indicator}", stubbed(opts, sourceWB, wbIndicator))
	mux.HandleFunc("HEAD /wb/v2", stubbed(opts, sourceWB, ok))
	mux.HandleFunc("GET /ne/countries.geojson", stubbed(opts, sourceNE, neCountries))
	return mux
}

func stubbed(opts stubOptions, source string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Debug {
			log.Printf("stub %s: %s %s", source, r.Method, r.URL.RequestURI())
		}
		if opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if opts.Fail[source] {
			http.Error(w, "stubbed failure", http.StatusServiceUnavailable)
			return
		}
		fn(w, r)
	}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func restRegion(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.PathValue("region"), "africa") {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Not Found"})
		return
	}
	out := make([]map[string]any, 0, len(countries))
	for _, c := range countries {
		out = append(out, map[string]any{
			"name":        map[string]string{"common": c.Name},
			"cca2":        c.CCA2,
			"cca3":        c.CCA3,
			"capital":     []string{c.Capital},
			"region":      "Africa",
			"subregion":   c.Subregion,
			"currencies":  map[string]any{c.Currency: map[string]string{"name": c.Currency}},
			"capitalInfo": map[string]any{"latlng": c.LatLng[:]},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func wbIndicator(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	indicator := r.PathValue("indicator")

	c, found := findCountry(code)
	if !found {
		// mesmo formato de erro do Banco Mundial: envelope com um só elemento
		writeJSON(w, http.StatusOK, []any{map[string]any{
			"message": []map[string]string{{"id": "120", "key": "Invalid value", "value": "The provided parameter value is not valid"}},
		}})
		return
	}
	meta := map[string]any{"page": 1, "pages": 1, "per_page": 1, "total": 1}
	value := c.indicatorValue(indicator)
	if value == nil {
		writeJSON(w, http.StatusOK, []any{meta, nil})
		return
	}
	writeJSON(w, http.StatusOK, []any{meta, []map[string]any{{
		"indicator":       map[string]string{"id": indicator},
		"country":         map[string]string{"id": c.CCA2, "value": c.Name},
		"countryiso3code": c.CCA3,
		"date":            "2023",
		"value":           *value,
	}}})
}

func neCountries(w http.ResponseWriter, _ *http.Request) {
	features := make([]map[string]any, 0, len(countries)+1)
	for _, c := range countries {
		features = append(features, feature(c.Name, c.CCA2, c.CCA3, "Africa", c.LatLng))
	}
	features = append(features, feature("France", "FR", "FRA", "Europe", [2]float64{48.85, 2.35}))
	writeJSON(w, http.StatusOK, map[string]any{"type": "FeatureCollection", "features": features})
}

// feature gera um quadrado de 1 grau ao redor da capital.
func feature(name, a2, a3, continent string, latlng [2]float64) map[string]any {
	lat, lng := latlng[0], latlng[1]
	ring := [][2]float64{
		{lng - 1, lat - 1},
		{lng + 1, lat - 1},
		{lng + 1, lat + 1},
		{lng - 1, lat + 1},
		{lng - 1, lat - 1},
	}
	return map[string]any{
		"type": "Feature",
		"properties": map[string]string{
			"NAME":      name,
			"ISO_A2":    a2,
			"ISO_A3":    a3,
			"CONTINENT": continent,
		},
		"geometry": map[string]any{"type": "Polygon", "coordinates": [][][2]float64{ring}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("stub: encode response: %v", err)
	}
}
