package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"africa-gateway/countries/domain"
	"africa-gateway/internal/logging"
)

const boundaryKey = "naturalearth"

// Deps são os colaboradores do Service. Caches nulos viram pass-through.
type Deps struct {
	Directory  domain.CountryDirectory
	Indicators domain.IndicatorSource
	Boundaries domain.BoundaryDataset
	Probers    []domain.Prober

	CountryCache   domain.Cache[[]domain.Country]
	IndicatorCache domain.Cache[domain.IndicatorValue]
	BoundaryCache  domain.Cache[domain.BoundarySnapshot]

	Settings domain.Settings
	Logger   logging.Logger
	Now      func() time.Time
}

// Service compõe os dados dos três upstreams.
type Service struct {
	directory  domain.CountryDirectory
	indicators domain.IndicatorSource
	boundaries domain.BoundaryDataset
	probers    []domain.Prober

	countryCache   domain.Cache[[]domain.Country]
	indicatorCache domain.Cache[domain.IndicatorValue]
	boundaryCache  domain.Cache[domain.BoundarySnapshot]

	settings domain.Settings
	log      logging.Logger
	now      func() time.Time
	started  time.Time

	mu             sync.RWMutex
	boundarySource domain.BoundarySource
}

func NewService(d Deps) *Service {
	s := &Service{
		directory:      d.Directory,
		indicators:     d.Indicators,
		boundaries:     d.Boundaries,
		probers:        d.Probers,
		countryCache:   d.CountryCache,
		indicatorCache: d.IndicatorCache,
		boundaryCache:  d.BoundaryCache,
		settings:       d.Settings.WithDefaults(),
		log:            d.Logger,
		now:            d.Now,
	}
	if s.countryCache == nil {
		s.countryCache = passThrough[[]domain.Country]{}
	}
	if s.indicatorCache == nil {
		s.indicatorCache = passThrough[domain.IndicatorValue]{}
	}
	if s.boundaryCache == nil {
		s.boundaryCache = passThrough[domain.BoundarySnapshot]{}
	}
	if s.log == nil {
		s.log = logging.Noop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.started = s.now()
	return s
}

// CapitalsByRegion agrupa as capitais por sub-região canônica, em ordem canônica,
// com países ordenados por nome e sem grupos vazios.
func (s *Service) CapitalsByRegion(ctx context.Context) ([]domain.RegionCapitals, error) {
	countries, err := s.countries(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.CapitalEntry, len(s.settings.RegionOrder))
	for _, r := range s.settings.RegionOrder {
		grouped[r] = nil
	}
	for _, c := range countries {
		capital := c.Capital()
		if c.Name == "" || capital == "" {
			continue
		}
		if _, ok := grouped[c.Subregion]; !ok {
			continue
		}
		grouped[c.Subregion] = append(grouped[c.Subregion], domain.CapitalEntry{Country: c.Name, Capital: capital})
	}

	out := make([]domain.RegionCapitals, 0, len(s.settings.RegionOrder))
	for _, r := range s.settings.RegionOrder {
		entries := grouped[r]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Country < entries[j].Country })
		out = append(out, domain.RegionCapitals{Region: r, Countries: entries})
	}
	return out, nil
}

// EconomicProfile resolve o código, acha o país, busca indicadores em paralelo,
// deriva os setores e compõe o perfil. Código desconhecido => domain.ErrNotFound.
func (s *Service) EconomicProfile(ctx context.Context, code string) (*domain.EconomicProfile, error) {
	country, err := s.resolveCountry(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.economicProfile(ctx, country), nil
}

// economicProfile compõe o perfil de um país já resolvido; falhas de indicador viram null.
func (s *Service) economicProfile(ctx context.Context, country domain.Country) *domain.EconomicProfile {
	ind := s.settings.Indicators
	codes := []string{ind.GDP, ind.GDPGrowth, ind.Population, ind.PopulationGrowth, ind.Agriculture, ind.Industry, ind.Services}
	ops := make([]Op[domain.IndicatorValue], len(codes))
	for i, indicator := range codes {
		ops[i] = s.indicatorOp(country.Alpha2, indicator)
	}
	res := Gather(ctx, s.settings.GatherLimit, s.settings.GatherTimeout, ops...)
	s.logFailures(ctx, country.Alpha2, codes, res)

	gdp := indicatorPtr(res[0])
	sectors := domain.DeriveSectors(s.sectorShares(country.Alpha2, res[4], res[5], res[6]), gdp)

	return &domain.EconomicProfile{
		Country: domain.CountryInfo{
			Name:    country.Name,
			Code:    country.Alpha2,
			Capital: domain.StringPtr(country.Capital()),
			Region:  country.Subregion,
		},
		Economy: domain.Economy{
			GDP:        gdp,
			GDPGrowth:  indicatorPtr(res[1]),
			Currency:   domain.StringPtr(country.PrimaryCurrency()),
			KeySectors: sectors,
		},
		Demographics: domain.Demographics{
			Population: indicatorPtr(res[2]),
			GrowthRate: indicatorPtr(res[3]),
			MedianAge:  s.settings.MedianAge,
		},
	}
}

// CountryProfile é o perfil econômico mais a geografia. Sem fronteira,
// boundaries vira {} e as coordenadas da capital caem para [0,0].
func (s *Service) CountryProfile(ctx context.Context, code string) (*domain.CountryProfile, error) {
	country, err := s.resolveCountry(ctx, code)
	if err != nil {
		return nil, err
	}
	econ := s.economicProfile(ctx, country)

	geo := domain.Geography{
		Boundaries:         json.RawMessage(`{}`),
		CapitalCoordinates: []float64{0, 0},
	}
	if len(country.CapitalLatLng) == 2 {
		geo.CapitalCoordinates = append([]float64(nil), country.CapitalLatLng...)
	}
	snap := s.boundarySnapshot(ctx)
	if f, ok := findFeature(snap.Collection, country.Alpha2, country.Alpha3); ok && len(f.Geometry) > 0 && string(f.Geometry) != "null" {
		geo.Boundaries = f.Geometry
	}

	return &domain.CountryProfile{EconomicProfile: *econ, Geography: geo}, nil
}

// AllEconomicData devolve nome, código, capital, população e PIB de todos os países
// com código alpha-2, ordenados por nome. Falhas de indicador viram null.
func (s *Service) AllEconomicData(ctx context.Context) ([]domain.EconomicSummary, error) {
	countries, err := s.countries(ctx)
	if err != nil {
		return nil, err
	}

	withCode := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		if c.Alpha2 != "" {
			withCode = append(withCode, c)
		}
	}

	ind := s.settings.Indicators
	ops := make([]Op[domain.IndicatorValue], 0, 2*len(withCode))
	for _, c := range withCode {
		ops = append(ops, s.indicatorOp(c.Alpha2, ind.Population), s.indicatorOp(c.Alpha2, ind.GDP))
	}
	res := Gather(ctx, s.settings.GatherLimit, s.settings.GatherTimeout, ops...)

	out := make([]domain.EconomicSummary, 0, len(withCode))
	failed := 0
	for i, c := range withCode {
		pop, gdp := res[2*i], res[2*i+1]
		if pop.State == domain.Failed || gdp.State == domain.Failed {
			failed++
		}
		out = append(out, domain.EconomicSummary{
			Name:       c.Name,
			Code:       c.Alpha2,
			Capital:    domain.StringPtr(c.Capital()),
			Population: indicatorPtr(pop),
			GDP:        indicatorPtr(gdp),
		})
	}
	if failed > 0 {
		s.log.Warn(ctx, "economic summary degraded", logging.Int("countries_with_failures", failed))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MapData devolve só as features africanas (CONTINENT == "Africa").
func (s *Service) MapData(ctx context.Context) domain.FeatureCollection {
	snap := s.boundarySnapshot(ctx)
	out := domain.EmptyFeatureCollection()
	for _, f := range snap.Collection.Features {
		if f.Property("CONTINENT") == "Africa" {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

// CountryMap devolve a feature cujo ISO_A2 ou ISO_A3 bate com o código.
func (s *Service) CountryMap(ctx context.Context, code string) (domain.FeatureCollection, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	snap := s.boundarySnapshot(ctx)
	f, ok := findFeature(snap.Collection, code)
	if !ok {
		return domain.FeatureCollection{}, fmt.Errorf("boundary for %q: %w", code, domain.ErrNotFound)
	}
	fc := domain.EmptyFeatureCollection()
	fc.Features = append(fc.Features, f)
	return fc, nil
}

// Status sonda os upstreams em paralelo e resume o estado do serviço.
func (s *Service) Status(ctx context.Context) domain.ServiceStatus {
	ops := make([]Op[domain.UpstreamStatus], len(s.probers))
	for i, p := range s.probers {
		ops[i] = func(ctx context.Context) (domain.Outcome[domain.UpstreamStatus], error) {
			return domain.Found(p.Probe(ctx)), nil
		}
	}
	res := Gather(ctx, len(ops), 0, ops...)

	upstreams := make([]domain.UpstreamStatus, 0, len(res))
	for _, r := range res {
		if r.OK() {
			upstreams = append(upstreams, r.Value)
			continue
		}
		upstreams = append(upstreams, domain.UpstreamStatus{Status: "down: " + errText(r.Err)})
	}

	s.mu.RLock()
	source := s.boundarySource
	s.mu.RUnlock()

	return domain.ServiceStatus{
		Version:        s.settings.Version,
		UptimeSeconds:  int(s.now().Sub(s.started) / time.Second),
		CacheEnabled:   s.settings.CacheEnabled,
		CacheTTL:       int(s.settings.CacheTTL / time.Second),
		BoundarySource: source,
		Upstreams:      upstreams,
	}
}

func (s *Service) countries(ctx context.Context) ([]domain.Country, error) {
	region := s.settings.Region
	countries, err := s.countryCache.GetOrLoad(ctx, region, func(ctx context.Context) ([]domain.Country, error) {
		return s.directory.FetchRegion(ctx, region)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch countries: %w", err)
	}
	return countries, nil
}

func (s *Service) resolveCountry(ctx context.Context, code string) (domain.Country, error) {
	resolved := domain.ResolveCode(code, s.settings.Aliases)
	if resolved == "" {
		return domain.Country{}, fmt.Errorf("empty country code: %w", domain.ErrNotFound)
	}
	countries, err := s.countries(ctx)
	if err != nil {
		return domain.Country{}, err
	}
	for _, c := range countries {
		if c.Alpha2 == resolved || c.Alpha3 == resolved {
			return c, nil
		}
	}
	return domain.Country{}, fmt.Errorf("country %q: %w", code, domain.ErrNotFound)
}

// indicatorOp busca um indicador pelo cache. Missing é cacheado (Value nil);
// Failed volta como erro e não é cacheado.
func (s *Service) indicatorOp(country, indicator string) Op[domain.IndicatorValue] {
	return func(ctx context.Context) (domain.Outcome[domain.IndicatorValue], error) {
		v, err := s.indicatorCache.GetOrLoad(ctx, country+":"+indicator, func(ctx context.Context) (domain.IndicatorValue, error) {
			out := s.indicators.FetchIndicator(ctx, country, indicator)
			switch out.State {
			case domain.Present:
				return out.Value, nil
			case domain.Missing:
				return domain.IndicatorValue{Country: country, Indicator: indicator}, nil
			}
			if out.Err == nil {
				return domain.IndicatorValue{}, domain.ErrUpstreamUnavailable
			}
			return domain.IndicatorValue{}, out.Err
		})
		if err != nil {
			return domain.Outcome[domain.IndicatorValue]{}, err
		}
		if v.Value == nil {
			return domain.Absent[domain.IndicatorValue](), nil
		}
		return domain.Found(v), nil
	}
}

// sectorShares usa as participações vivas do upstream quando há alguma;
// senão cai na tabela estática.
func (s *Service) sectorShares(code string, agriculture, industry, services domain.Outcome[domain.IndicatorValue]) []domain.SectorShare {
	live := make([]domain.SectorShare, 0, 3)
	for _, e := range []struct {
		name string
		out  domain.Outcome[domain.IndicatorValue]
	}{
		{"Agriculture", agriculture},
		{"Industry", industry},
		{"Services", services},
	} {
		if p := indicatorPtr(e.out); p != nil {
			live = append(live, domain.SectorShare{Name: e.name, Contribution: *p})
		}
	}
	if len(live) > 0 {
		return live
	}
	return s.settings.Sectors.For(code)
}

// boundarySnapshot passa pelo cache; resultados degradados (não vivos)
// são servidos mas invalidados, para que a próxima chamada tente o vivo de novo.
func (s *Service) boundarySnapshot(ctx context.Context) domain.BoundarySnapshot {
	snap, err := s.boundaryCache.GetOrLoad(ctx, boundaryKey, func(ctx context.Context) (domain.BoundarySnapshot, error) {
		fc, src := s.boundaries.FetchDataset(ctx)
		return domain.BoundarySnapshot{Collection: fc, Source: src}, nil
	})
	if err != nil {
		s.log.Warn(ctx, "boundary dataset wait aborted", logging.Err(err))
		return domain.BoundarySnapshot{Collection: domain.EmptyFeatureCollection(), Source: domain.BoundaryEmpty}
	}
	if snap.Source != domain.BoundaryLive {
		if d, ok := s.boundaryCache.(interface {
			Delete(ctx context.Context, key string)
		}); ok {
			d.Delete(ctx, boundaryKey)
		}
	}

	s.mu.Lock()
	s.boundarySource = snap.Source
	s.mu.Unlock()
	return snap
}

func (s *Service) logFailures(ctx context.Context, country string, codes []string, res []domain.Outcome[domain.IndicatorValue]) {
	for i, r := range res {
		if r.State == domain.Failed {
			s.log.Warn(ctx, "indicator unavailable",
				logging.String("country", country), logging.String("indicator", codes[i]), logging.Err(r.Err))
		}
	}
}

func findFeature(fc domain.FeatureCollection, codes ...string) (domain.Feature, bool) {
	for _, f := range fc.Features {
		a2 := strings.ToUpper(f.Property("ISO_A2"))
		a3 := strings.ToUpper(f.Property("ISO_A3"))
		for _, code := range codes {
			if code != "" && (code == a2 || code == a3) {
				return f, true
			}
		}
	}
	return domain.Feature{}, false
}

func indicatorPtr(o domain.Outcome[domain.IndicatorValue]) *float64 {
	if o.State != domain.Present || o.Value.Value == nil {
		return nil
	}
	v := *o.Value.Value
	return &v
}

func errText(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// passThrough é o cache nulo: sempre chama o loader.
type passThrough[V any] struct{}

func (passThrough[V]) GetOrLoad(ctx context.Context, _ string, load func(context.Context) (V, error)) (V, error) {
	return load(ctx)
}
