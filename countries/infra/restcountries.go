package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"africa-gateway/countries/domain"
	"africa-gateway/internal/logging"
)

const (
	SourceRestCountries = "restcountries"

	DefaultRestCountriesURL = "https://restcountries.com/v3.1"
)

// campos pedidos ao REST Countries (o endpoint aceita no máximo 10)
const restCountriesFields = "name,cca2,cca3,capital,region,subregion,currencies,capitalInfo"

type RestCountriesOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *Metrics
	Logger     logging.Logger
}

// RestCountriesClient busca o diretório de países por região.
type RestCountriesClient struct {
	baseURL string
	client  *http.Client
	metrics *Metrics
	log     logging.Logger
}

func NewRestCountriesClient(opts RestCountriesOptions) *RestCountriesClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultRestCountriesURL
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &RestCountriesClient{
		baseURL: base,
		client:  newHTTPClient(opts.HTTPClient, opts.Timeout),
		metrics: opts.Metrics,
		log:     log.With(logging.String("upstream", SourceRestCountries)),
	}
}

func (c *RestCountriesClient) BaseURL() string { return c.baseURL }

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2        string                     `json:"cca2"`
	CCA3        string                     `json:"cca3"`
	Capital     []string                   `json:"capital"`
	Region      string                     `json:"region"`
	Subregion   string                     `json:"subregion"`
	Currencies  map[string]json.RawMessage `json:"currencies"`
	CapitalInfo struct {
		LatLng []float64 `json:"latlng"`
	} `json:"capitalInfo"`
}

// FetchRegion faz GET {base}/region/{region}. Timeout, erro de rede, status não 2xx
// ou JSON inválido retornam erro que embrulha domain.ErrUpstreamUnavailable.
func (c *RestCountriesClient) FetchRegion(ctx context.Context, region string) ([]domain.Country, error) {
	start := time.Now()
	u := c.baseURL + "/region/" + url.PathEscape(strings.ToLower(region)) + "?fields=" + restCountriesFields
	c.log.Debug(ctx, "fetching countries", logging.String("url", u))

	body, err := fetchRaw(ctx, c.client, SourceRestCountries, u)
	if err == nil {
		var raw []restCountry
		err = decodeJSON(SourceRestCountries, body, &raw)
		if err == nil {
			c.metrics.ObserveUpstream(SourceRestCountries, "ok", time.Since(start))
			return toCountries(raw), nil
		}
	}
	c.metrics.ObserveUpstream(SourceRestCountries, "error", time.Since(start))
	c.log.Error(ctx, "country directory fetch failed", logging.Err(err))
	return nil, err
}

func toCountries(raw []restCountry) []domain.Country {
	out := make([]domain.Country, 0, len(raw))
	for _, r := range raw {
		currencies := make([]string, 0, len(r.Currencies))
		for code := range r.Currencies {
			currencies = append(currencies, code)
		}
		sort.Strings(currencies)

		var latlng []float64
		if len(r.CapitalInfo.LatLng) == 2 {
			latlng = append(latlng, r.CapitalInfo.LatLng...)
		}
		out = append(out, domain.Country{
			Name:          r.Name.Common,
			Alpha2:        strings.ToUpper(r.CCA2),
			Alpha3:        strings.ToUpper(r.CCA3),
			Capitals:      r.Capital,
			Region:        r.Region,
			Subregion:     r.Subregion,
			Currencies:    currencies,
			CapitalLatLng: latlng,
		})
	}
	return out
}
