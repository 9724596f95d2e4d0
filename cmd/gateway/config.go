package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"africa-gateway/countries/domain"

	"gopkg.in/yaml.v3"
)

type config struct {
	listenAddr string
	location   *time.Location
	metrics    bool

	cacheEnabled         bool
	cacheTTL             time.Duration
	apiTimeout           time.Duration
	restCountriesURL     string
	worldBankURL         string
	naturalEarthURL      string
	boundarySnapshotPath string
	boundaryStorePath    string
	redisURL             string
	worldBankRPS         float64
	worldBankBurst       int

	rateEnabled        bool
	rateRPS            float64
	rateBurst          int
	rateHeavyRPS       float64
	rateHeavyBurst     int
	rateKeyHeader      string
	trustXFF           bool
	retryAfter         time.Duration
	addHeaders         bool
	concurrencyMax     int
	concurrencyTimeout time.Duration

	rateStatsEnabled       bool
	rateStatsRedisAddr     string
	rateStatsRedisPassword string
	rateStatsRedisDB       int
	rateStatsPrefix        string
	rateStatsTTL           time.Duration
	rateStatsBucket        string
	rateStatsTrackKeys     bool

	settings domain.Settings
}

// overlay é o formato do arquivo YAML opcional (CONFIG_FILE ou --config).
type overlay struct {
	Region      string             `yaml:"region"`
	RegionOrder []string           `yaml:"region_order"`
	Indicators  map[string]string  `yaml:"indicators"`
	Sectors     domain.SectorTable `yaml:"sectors"`
	Aliases     map[string]string  `yaml:"aliases"`
	MedianAge   float64            `yaml:"median_age"`
}

func readConfig(configFile string) (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8000")
	cfg.metrics = getenvBoolDefault("METRICS_ENABLED", true)

	tz := getenvDefault("TZ", "Etc/UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return config{}, fmt.Errorf("invalid TZ %q: %w", tz, err)
	}
	cfg.location = loc

	cfg.cacheEnabled = getenvBoolDefault("CACHE_ENABLED", true)
	cfg.cacheTTL = getenvSecondsDefault("CACHE_TTL", time.Hour)
	cfg.apiTimeout = getenvSecondsDefault("EXTERNAL_API_TIMEOUT", 10*time.Second)
	cfg.restCountriesURL = os.Getenv("REST_COUNTRIES_URL")
	cfg.worldBankURL = os.Getenv("WORLD_BANK_API_URL")
	cfg.naturalEarthURL = os.Getenv("NATURAL_EARTH_URL")
	cfg.boundarySnapshotPath = os.Getenv("BOUNDARY_SNAPSHOT_PATH")
	cfg.boundaryStorePath = os.Getenv("BOUNDARY_STORE_PATH")
	cfg.redisURL = os.Getenv("REDIS_URL")
	cfg.worldBankRPS = getenvFloatDefault("WORLDBANK_RPS", 0)
	cfg.worldBankBurst = getenvIntDefault("WORLDBANK_BURST", 0)

	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.rateRPS = getenvFloatDefault("RATE_RPS", 10)
	// Com RPS muito baixo (ex: 0.02) o burst padrão 20 deixa passar as
	// primeiras ~20 e parece que o limiter não funciona.
	if burst, ok := getenvInt("RATE_BURST"); ok {
		cfg.rateBurst = burst
	} else {
		cfg.rateBurst = 20
		if getenvIsSet("RATE_RPS") && cfg.rateRPS > 0 && cfg.rateRPS < 1 {
			cfg.rateBurst = 1
		}
	}
	cfg.rateHeavyRPS = getenvFloatDefault("RATE_HEAVY_RPS", 1)
	cfg.rateHeavyBurst = getenvIntDefault("RATE_HEAVY_BURST", 2)
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 0)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)
	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsRedisAddr = getenvDefault("RATE_STATS_REDIS_ADDR", "")
	cfg.rateStatsRedisPassword = os.Getenv("RATE_STATS_REDIS_PASSWORD")
	cfg.rateStatsRedisDB = getenvIntDefault("RATE_STATS_REDIS_DB", 0)
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "africa:ingress")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	s := domain.DefaultSettings()
	s.GatherLimit = getenvIntDefault("GATHER_LIMIT", s.GatherLimit)
	s.GatherTimeout = getenvDurationDefault("GATHER_TIMEOUT", s.GatherTimeout)
	s.CacheEnabled = cfg.cacheEnabled
	s.CacheTTL = cfg.cacheTTL
	s.Version = getenvDefault("APP_VERSION", s.Version)

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		if s, err = applyOverlayFile(s, configFile); err != nil {
			return config{}, err
		}
	}
	if s, err = applyEnvSettings(s); err != nil {
		return config{}, err
	}
	cfg.settings = s

	if cfg.rateStatsEnabled && strings.TrimSpace(cfg.rateStatsRedisAddr) == "" && cfg.redisURL == "" {
		return config{}, errors.New("RATE_STATS_REDIS_ADDR or REDIS_URL is required when RATE_STATS_ENABLED=true")
	}
	if cfg.cacheTTL <= 0 {
		return config{}, errors.New("CACHE_TTL must be > 0")
	}
	if cfg.apiTimeout <= 0 {
		return config{}, errors.New("EXTERNAL_API_TIMEOUT must be > 0")
	}
	if cfg.rateRPS <= 0 {
		return config{}, errors.New("RATE_RPS must be > 0")
	}
	if cfg.rateBurst <= 0 {
		return config{}, errors.New("RATE_BURST must be > 0")
	}
	if cfg.rateHeavyRPS <= 0 || cfg.rateHeavyBurst <= 0 {
		return config{}, errors.New("RATE_HEAVY_RPS and RATE_HEAVY_BURST must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if s.GatherLimit <= 0 {
		return config{}, errors.New("GATHER_LIMIT must be > 0")
	}
	return cfg, nil
}

// indicatorEnv liga cada variável INDICATOR_* ao nome usado no YAML.
var indicatorEnv = []struct{ env, name string }{
	{"INDICATOR_GDP", "gdp"},
	{"INDICATOR_GDP_GROWTH", "gdp_growth"},
	{"INDICATOR_POPULATION", "population"},
	{"INDICATOR_POPULATION_GROWTH", "population_growth"},
	{"INDICATOR_AGRICULTURE", "agriculture"},
	{"INDICATOR_INDUSTRY", "industry"},
	{"INDICATOR_SERVICES", "services"},
}

// applyEnvSettings aplica REGION, REGION_ORDER (separado por vírgula) e INDICATOR_*.
// Roda depois do YAML: o ambiente tem precedência.
func applyEnvSettings(s domain.Settings) (domain.Settings, error) {
	if v := strings.TrimSpace(os.Getenv("REGION")); v != "" {
		s.Region = v
	}
	if v := os.Getenv("REGION_ORDER"); v != "" {
		order := splitList(v)
		if len(order) == 0 {
			return s, errors.New("REGION_ORDER must list at least one region")
		}
		s.RegionOrder = order
	}
	for _, ie := range indicatorEnv {
		if v, ok := os.LookupEnv(ie.env); ok && v != "" {
			if err := setIndicator(&s.Indicators, ie.name, v); err != nil {
				return s, fmt.Errorf("%s: %w", ie.env, err)
			}
		}
	}
	return s, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyOverlayFile(s domain.Settings, path string) (domain.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config file: %w", err)
	}
	return applyOverlay(s, raw)
}

// applyOverlay sobrepõe apenas os campos presentes no YAML.
// Setores e aliases são mesclados por chave.
func applyOverlay(s domain.Settings, raw []byte) (domain.Settings, error) {
	var o overlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return s, fmt.Errorf("parse config file: %w", err)
	}

	if o.Region != "" {
		s.Region = o.Region
	}
	if len(o.RegionOrder) > 0 {
		s.RegionOrder = o.RegionOrder
	}
	for name, code := range o.Indicators {
		if err := setIndicator(&s.Indicators, name, code); err != nil {
			return s, err
		}
	}
	if len(o.Sectors) > 0 {
		merged := make(domain.SectorTable, len(s.Sectors)+len(o.Sectors))
		for k, v := range s.Sectors {
			merged[k] = v
		}
		for k, v := range o.Sectors {
			if k != domain.DefaultSectorKey {
				k = strings.ToUpper(k)
			}
			merged[k] = v
		}
		s.Sectors = merged
	}
	if len(o.Aliases) > 0 {
		merged := make(map[string]string, len(s.Aliases)+len(o.Aliases))
		for k, v := range s.Aliases {
			merged[k] = v
		}
		for k, v := range o.Aliases {
			merged[strings.ToUpper(k)] = strings.ToUpper(v)
		}
		s.Aliases = merged
	}
	if o.MedianAge > 0 {
		s.MedianAge = o.MedianAge
	}
	return s, nil
}

func setIndicator(t *domain.IndicatorTable, name, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("indicator %q: empty code", name)
	}
	switch name {
	case "gdp":
		t.GDP = code
	case "gdp_growth":
		t.GDPGrowth = code
	case "population":
		t.Population = code
	case "population_growth":
		t.PopulationGrowth = code
	case "agriculture":
		t.Agriculture = code
	case "industry":
		t.Industry = code
	case "services":
		t.Services = code
	default:
		return fmt.Errorf("unknown indicator %q", name)
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvInt(k string) (int, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getenvIsSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getenvSecondsDefault aceita segundos ("3600", "2.5") ou uma duração Go ("1h").
func getenvSecondsDefault(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
