package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"africa-gateway/countries/domain"
	"africa-gateway/internal/logging"
)

const (
	SourceWorldBank = "worldbank"

	DefaultWorldBankURL = "https://api.worldbank.org/v2"
)

type WorldBankOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client

	// RPS > 0 liga um limitador do lado do cliente (Burst padrão 1).
	RPS     float64
	Burst   int
	Metrics *Metrics
	Logger  logging.Logger
}

// WorldBankClient busca o valor mais recente não vazio de um indicador.
// Nunca retorna erro: falhas viram domain.Outcome com State Failed.
type WorldBankClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	metrics *Metrics
	log     logging.Logger
}

func NewWorldBankClient(opts WorldBankOptions) *WorldBankClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultWorldBankURL
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	c := &WorldBankClient{
		baseURL: base,
		client:  newHTTPClient(opts.HTTPClient, opts.Timeout),
		metrics: opts.Metrics,
		log:     log.With(logging.String("upstream", SourceWorldBank)),
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return c
}

func (c *WorldBankClient) BaseURL() string { return c.baseURL }

type wbObservation struct {
	Value *float64 `json:"value"`
	Date  string   `json:"date"`
}

// FetchIndicator faz GET {base}/country/{code}/indicator/{indicator}?format=json&per_page=1&mrnev=1.
// A resposta é um envelope [metadados, dados]; o valor é dados[0].value.
// Sem dados ou valor nulo => Missing.
func (c *WorldBankClient) FetchIndicator(ctx context.Context, country, indicator string) domain.Outcome[domain.IndicatorValue] {
	start := time.Now()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.ObserveUpstream(SourceWorldBank, "error", time.Since(start))
			return domain.FailedWith[domain.IndicatorValue](&domain.UpstreamError{Source: SourceWorldBank, Err: fmt.Errorf("rate limiter: %w", err)})
		}
	}

	u := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=1&mrnev=1",
		c.baseURL, url.PathEscape(country), url.PathEscape(indicator))
	c.log.Debug(ctx, "fetching indicator", logging.String("url", u))

	out, err := c.fetch(ctx, u, country, indicator)
	if err != nil {
		c.metrics.ObserveUpstream(SourceWorldBank, "error", time.Since(start))
		c.log.Warn(ctx, "indicator fetch failed",
			logging.String("country", country), logging.String("indicator", indicator), logging.Err(err))
		return domain.FailedWith[domain.IndicatorValue](err)
	}
	if out.State == domain.Missing {
		c.metrics.ObserveUpstream(SourceWorldBank, "missing", time.Since(start))
	} else {
		c.metrics.ObserveUpstream(SourceWorldBank, "ok", time.Since(start))
	}
	return out
}

func (c *WorldBankClient) fetch(ctx context.Context, u, country, indicator string) (domain.Outcome[domain.IndicatorValue], error) {
	var none domain.Outcome[domain.IndicatorValue]

	body, err := fetchRaw(ctx, c.client, SourceWorldBank, u)
	if err != nil {
		return none, err
	}
	var envelope []json.RawMessage
	if err := decodeJSON(SourceWorldBank, body, &envelope); err != nil {
		return none, err
	}
	// envelope de um só elemento = mensagem de erro do Banco Mundial (ex.: país sem série)
	if len(envelope) < 2 {
		return domain.Absent[domain.IndicatorValue](), nil
	}
	var data []wbObservation
	if err := decodeJSON(SourceWorldBank, envelope[1], &data); err != nil {
		return none, err
	}
	if len(data) == 0 || data[0].Value == nil {
		return domain.Absent[domain.IndicatorValue](), nil
	}
	return domain.Found(domain.IndicatorValue{
		Country:   country,
		Indicator: indicator,
		Value:     data[0].Value,
		Date:      data[0].Date,
	}), nil
}
