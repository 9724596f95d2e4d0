package countries

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"africa-gateway/countries/application"
	"africa-gateway/countries/domain"
	"africa-gateway/countries/infra"
)

const countriesJSON = `[
 {"name":{"common":"Kenya"},"cca2":"KE","cca3":"KEN","capital":["Nairobi"],"region":"Africa","subregion":"Eastern Africa","currencies":{"KES":{}}},
 {"name":{"common":"Egypt"},"cca2":"EG","cca3":"EGY","capital":["Cairo"],"region":"Africa","subregion":"Northern Africa","currencies":{"EGP":{}}},
 {"name":{"common":"Uganda"},"cca2":"UG","cca3":"UGA","capital":["Kampala"],"region":"Africa","subregion":"Eastern Africa"}
]`

const boundariesJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"ISO_A2":"KE","ISO_A3":"KEN","CONTINENT":"Africa"},"geometry":{"type":"Polygon","coordinates":[[[34,-4],[41,-4],[41,4],[34,-4]]]}},
 {"type":"Feature","properties":{"ISO_A2":"BR","ISO_A3":"BRA","CONTINENT":"South America"},"geometry":null}
]}`

type upstreams struct {
	restDown     atomic.Bool
	boundaryDown atomic.Bool
	server       *httptest.Server
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/region/africa", func(w http.ResponseWriter, r *http.Request) {
		if u.restDown.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(countriesJSON))
	})
	mux.HandleFunc("/wb/country/{code}/indicator/{indicator}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("code") + ":" + r.PathValue("indicator") {
		case "KE:NY.GDP.MKTP.CD":
			_, _ = w.Write([]byte(`[{"page":1},[{"date":"2023","value":107440000000}]]`))
		case "KE:SP.POP.TOTL":
			_, _ = w.Write([]byte(`[{"page":1},[{"date":"2023","value":55100586}]]`))
		case "EG:NY.GDP.MKTP.CD":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`[{"page":0},null]`))
		}
	})
	mux.HandleFunc("/ne/countries.geojson", func(w http.ResponseWriter, r *http.Request) {
		if u.boundaryDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(boundariesJSON))
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func newTestHandler(t *testing.T, u *upstreams) http.Handler {
	t.Helper()
	metrics, err := infra.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	ttl := time.Hour
	svc := application.NewService(application.Deps{
		Directory:      infra.NewRestCountriesClient(infra.RestCountriesOptions{BaseURL: u.server.URL + "/rest", Timeout: time.Second}),
		Indicators:     infra.NewWorldBankClient(infra.WorldBankOptions{BaseURL: u.server.URL + "/wb", Timeout: time.Second}),
		Boundaries:     infra.NewNaturalEarthClient(infra.NaturalEarthOptions{URL: u.server.URL + "/ne/countries.geojson", Timeout: time.Second}),
		CountryCache:   infra.NewTTLCache[[]domain.Country](infra.TTLOptions{Name: "countries", TTL: ttl, Enabled: true, Metrics: metrics}),
		IndicatorCache: infra.NewTTLCache[domain.IndicatorValue](infra.TTLOptions{Name: "indicators", TTL: ttl, Enabled: true, Metrics: metrics}),
		BoundaryCache:  infra.NewTTLCache[domain.BoundarySnapshot](infra.TTLOptions{Name: "boundaries", TTL: ttl, Enabled: true, Metrics: metrics}),
		Settings:       domain.DefaultSettings(),
	})
	return NewHandler(HandlerOptions{
		Service:  svc,
		Metrics:  metrics,
		Location: time.FixedZone("EAT", 3*60*60),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	rec, body := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2024-05-01T12:00:00+03:00", body["time"])
}

func TestHandler_AfricanCapitalsOrder(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	rec, _ := get(t, h, "/african-capitals")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Regions []domain.RegionCapitals `json:"african_capitals_by_region"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Regions, 2)
	assert.Equal(t, "Northern Africa", out.Regions[0].Region)
	assert.Equal(t, "Eastern Africa", out.Regions[1].Region)
	assert.Equal(t, []domain.CapitalEntry{
		{Country: "Kenya", Capital: "Nairobi"},
		{Country: "Uganda", Capital: "Kampala"},
	}, out.Regions[1].Countries)
}

func TestHandler_AfricanCapitalsUpstreamDown(t *testing.T) {
	u := newUpstreams(t)
	u.restDown.Store(true)
	h := newTestHandler(t, u)

	rec, body := get(t, h, "/african-capitals")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["detail"], "temporarily unavailable")
}

func TestHandler_EconomicProfile(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))

	rec, _ := get(t, h, "/economic-data/KEN")
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.EconomicProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "KE", p.Country.Code)
	require.NotNil(t, p.Economy.GDP)
	assert.Equal(t, 107440000000.0, *p.Economy.GDP)
	assert.Nil(t, p.Economy.GDPGrowth)
	assert.Equal(t, 25.0, p.Demographics.MedianAge)
	require.Len(t, p.Economy.KeySectors, 3)

	rec, body := get(t, h, "/economic-data/XYZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Economic data not found for country code: XYZ", body["detail"])
}

func TestHandler_AllEconomicDataDegradesToNulls(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	rec, _ := get(t, h, "/economic-data")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []domain.EconomicSummary `json:"economic_data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 3)
	assert.Equal(t, "Egypt", out.Data[0].Name)
	assert.Nil(t, out.Data[0].GDP)
	assert.Equal(t, "Kenya", out.Data[1].Name)
	require.NotNil(t, out.Data[1].Population)
	assert.Equal(t, 55100586.0, *out.Data[1].Population)
}

func TestHandler_CountryProfile(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	rec, body := get(t, h, "/country-profile/ke")
	require.Equal(t, http.StatusOK, rec.Code)

	geo, ok := body["geography"].(map[string]any)
	require.True(t, ok)
	boundaries, ok := geo["boundaries"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polygon", boundaries["type"])
	assert.Equal(t, []any{0.0, 0.0}, geo["capital_coordinates"])

	rec, _ = get(t, h, "/country-profile/ZZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MapData(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	rec, body := get(t, h, "/map-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.Len(t, body["features"], 1)

	rec, body = get(t, h, "/map-data/KEN")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["features"], 1)

	rec, body = get(t, h, "/map-data/ZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Map data not found for country code: ZZ", body["detail"])
}

func TestHandler_MapDataBoundaryDownWithoutSnapshot(t *testing.T) {
	u := newUpstreams(t)
	u.boundaryDown.Store(true)
	h := newTestHandler(t, u)

	rec, body := get(t, h, "/map-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FeatureCollection", body["type"])
	features, ok := body["features"].([]any)
	require.True(t, ok, "features must be an empty list, not null")
	assert.Empty(t, features)
}

func TestHandler_MethodNotAllowedAndUnknownPath(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/african-capitals", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, rec.Body.String())

	rec, body := get(t, h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", body["detail"])
}

func TestHandler_StatusAndMetrics(t *testing.T) {
	h := newTestHandler(t, newUpstreams(t))
	get(t, h, "/map-data")

	rec, body := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "live", body["boundary_source"])
	assert.Equal(t, true, body["cache_enabled"])

	rec, _ = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{code="200",method="GET",route="/map-data"} 1`)
	assert.Contains(t, rec.Body.String(), "upstream_requests_total")
}
