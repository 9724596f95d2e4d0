package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"africa-gateway/countries/domain"
	"africa-gateway/internal/logging"
)

const (
	SourceNaturalEarth = "naturalearth"

	DefaultNaturalEarthURL = "https://raw.githubusercontent.com/nvkelso/natural-earth-vector/master/geojson/ne_110m_admin_0_countries.geojson"

	lastKnownGoodKey = "naturalearth:countries"
)

type NaturalEarthOptions struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Store guarda o último dataset vivo (nível last_known_good). Opcional.
	Store KV

	// SnapshotPath é o arquivo embarcado (nível bundled). Opcional.
	SnapshotPath string

	Metrics *Metrics
	Logger  logging.Logger
}

// NaturalEarthClient busca o GeoJSON global de fronteiras com fallback em níveis:
// vivo -> último bom conhecido -> snapshot embarcado -> coleção vazia.
type NaturalEarthClient struct {
	url          string
	client       *http.Client
	store        KV
	snapshotPath string
	metrics      *Metrics
	log          logging.Logger
}

func NewNaturalEarthClient(opts NaturalEarthOptions) *NaturalEarthClient {
	u := opts.URL
	if u == "" {
		u = DefaultNaturalEarthURL
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &NaturalEarthClient{
		url:          u,
		client:       newHTTPClient(opts.HTTPClient, opts.Timeout),
		store:        opts.Store,
		snapshotPath: opts.SnapshotPath,
		metrics:      opts.Metrics,
		log:          log.With(logging.String("upstream", SourceNaturalEarth)),
	}
}

func (c *NaturalEarthClient) URL() string { return c.url }

// FetchDataset nunca falha: no pior caso devolve uma coleção vazia com domain.BoundaryEmpty.
func (c *NaturalEarthClient) FetchDataset(ctx context.Context) (domain.FeatureCollection, domain.BoundarySource) {
	fc, raw, err := c.FetchLive(ctx)
	if err == nil {
		c.remember(ctx, raw)
		return fc, domain.BoundaryLive
	}
	c.log.Warn(ctx, "boundary dataset unavailable, falling back", logging.Err(err))

	if fc, err := c.lastKnownGood(ctx); err == nil {
		c.log.Info(ctx, "serving boundaries from last known good store")
		return fc, domain.BoundaryLastKnownGood
	} else if !errors.Is(err, ErrKVNotFound) {
		c.log.Warn(ctx, "last known good boundaries unreadable", logging.Err(err))
	}

	if fc, err := c.bundled(); err == nil {
		c.log.Info(ctx, "serving boundaries from bundled snapshot", logging.String("path", c.snapshotPath))
		return fc, domain.BoundaryBundled
	} else if !errors.Is(err, os.ErrNotExist) {
		c.log.Warn(ctx, "bundled boundary snapshot unreadable", logging.String("path", c.snapshotPath), logging.Err(err))
	}

	c.log.Error(ctx, "no boundary data available, serving empty collection")
	return domain.EmptyFeatureCollection(), domain.BoundaryEmpty
}

// FetchLive busca só o nível vivo e devolve também o corpo cru
// (usado pelo comando snapshot para gravar o arquivo embarcado).
func (c *NaturalEarthClient) FetchLive(ctx context.Context) (domain.FeatureCollection, []byte, error) {
	start := time.Now()
	body, err := fetchRaw(ctx, c.client, SourceNaturalEarth, c.url)
	if err != nil {
		c.metrics.ObserveUpstream(SourceNaturalEarth, "error", time.Since(start))
		return domain.FeatureCollection{}, nil, err
	}
	fc, err := parseCollection(SourceNaturalEarth, body)
	if err != nil {
		c.metrics.ObserveUpstream(SourceNaturalEarth, "error", time.Since(start))
		return domain.FeatureCollection{}, nil, err
	}
	c.metrics.ObserveUpstream(SourceNaturalEarth, "ok", time.Since(start))
	return fc, body, nil
}

func (c *NaturalEarthClient) remember(ctx context.Context, raw []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, lastKnownGoodKey, raw, 0); err != nil {
		c.log.Warn(ctx, "could not persist last known good boundaries", logging.Err(err))
	}
}

func (c *NaturalEarthClient) lastKnownGood(ctx context.Context) (domain.FeatureCollection, error) {
	if c.store == nil {
		return domain.FeatureCollection{}, ErrKVNotFound
	}
	raw, err := c.store.Get(ctx, lastKnownGoodKey)
	if err != nil {
		return domain.FeatureCollection{}, err
	}
	return parseCollection("last_known_good", raw)
}

func (c *NaturalEarthClient) bundled() (domain.FeatureCollection, error) {
	if c.snapshotPath == "" {
		return domain.FeatureCollection{}, os.ErrNotExist
	}
	raw, err := os.ReadFile(c.snapshotPath)
	if err != nil {
		return domain.FeatureCollection{}, err
	}
	return parseCollection("bundled", raw)
}

func parseCollection(source string, raw []byte) (domain.FeatureCollection, error) {
	var fc domain.FeatureCollection
	if err := decodeJSON(source, raw, &fc); err != nil {
		return domain.FeatureCollection{}, err
	}
	if fc.Type != "FeatureCollection" {
		return domain.FeatureCollection{}, &domain.UpstreamError{Source: source, Err: fmt.Errorf("unexpected GeoJSON type %q", fc.Type)}
	}
	if fc.Features == nil {
		fc.Features = []domain.Feature{}
	}
	return fc, nil
}
